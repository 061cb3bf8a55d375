package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/nmkim/go-castgraph-backend/internal/llm"
)

// fakeModel serves canned chat-completions responses and captures the last
// prompt for inspection.
type fakeModel struct {
	reply      string
	statusCode int
	lastPrompt string
}

func (f *fakeModel) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			f.lastPrompt = req.Messages[len(req.Messages)-1].Content
		}
		if f.statusCode != 0 {
			w.WriteHeader(f.statusCode)
		}
		w.Write([]byte(f.reply))
	}
}

func completion(content string) string {
	b, _ := json.Marshal(content)
	return `{"choices":[{"message":{"role":"assistant","content":` + string(b) + `}}]}`
}

func newFakeClient(t *testing.T, f *fakeModel) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c, err := llm.NewClient("k", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestCharacters_Success(t *testing.T) {
	f := &fakeModel{reply: completion(`["루피", "조로", "나미"]`)}
	c := newFakeClient(t, f)

	names, err := Characters(context.Background(), c, "원피스", "main text", "cast text", 0)
	if err != nil {
		t.Fatalf("Characters error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"루피", "조로", "나미"}) {
		t.Fatalf("names = %#v", names)
	}
	// Both documents and the keyword reach the prompt.
	for _, want := range []string{"원피스", "main text", "cast text"} {
		if !strings.Contains(f.lastPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestCharacters_CapsAtMax(t *testing.T) {
	f := &fakeModel{reply: completion(`["a","b","c","d","e"]`)}
	c := newFakeClient(t, f)

	names, err := Characters(context.Background(), c, "k", "m", "", 3)
	if err != nil {
		t.Fatalf("Characters error: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("cap failed: %#v", names)
	}
}

func TestCharacters_ClipsLongDocuments(t *testing.T) {
	long := strings.Repeat("가", docClipRunes+500)
	f := &fakeModel{reply: completion(`["x"]`)}
	c := newFakeClient(t, f)

	if _, err := Characters(context.Background(), c, "k", long, "", 0); err != nil {
		t.Fatalf("Characters error: %v", err)
	}
	if strings.Contains(f.lastPrompt, long) {
		t.Fatalf("full document should not reach the prompt")
	}
	if !strings.Contains(f.lastPrompt, strings.Repeat("가", docClipRunes)) {
		t.Fatalf("clipped prefix missing from the prompt")
	}
}

func TestCharacters_SalvagesMalformedResponse(t *testing.T) {
	f := &fakeModel{reply: completion(`추출 결과: "루피" 그리고 "조로" 입니다`)}
	c := newFakeClient(t, f)

	names, err := Characters(context.Background(), c, "k", "m", "", 0)
	if err != nil {
		t.Fatalf("salvage should succeed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"루피", "조로"}) {
		t.Fatalf("salvaged = %#v", names)
	}
}

func TestCharacters_UnusableResponse(t *testing.T) {
	f := &fakeModel{reply: completion(`no quotes no json at all`)}
	c := newFakeClient(t, f)

	if _, err := Characters(context.Background(), c, "k", "m", "", 0); err == nil {
		t.Fatalf("unusable response should error")
	}
}

func TestCharacters_ModelErrorPropagates(t *testing.T) {
	f := &fakeModel{reply: `{"error":{"type":"server_error","message":"upstream down"}}`, statusCode: 500}
	c := newFakeClient(t, f)

	if _, err := Characters(context.Background(), c, "k", "m", "", 0); err == nil {
		t.Fatalf("model error should propagate")
	}
}
