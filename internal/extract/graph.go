package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nmkim/go-castgraph-backend/internal/domain"
	"github.com/nmkim/go-castgraph-backend/internal/llm"
)

const (
	// graphDocClipRunes caps each document's contribution to the prompt.
	graphDocClipRunes = 3000
	// graphTotalClipRunes caps the combined prompt text.
	graphTotalClipRunes = 15000
	// graphImagesPerDoc caps how many image URLs are offered per document.
	graphImagesPerDoc = 3
	// graphTemperature keeps relationship phrasing varied but grounded.
	graphTemperature = 0.5
)

const graphSystemPrompt = "당신은 나무위키 문서에서 인물 관계를 분석하는 전문가입니다. JSON 형태로만 응답합니다."

// Graph asks the model to synthesize the character-relationship graph from
// every collected document. Character-typed documents are named explicitly
// in the prompt so the model keeps them all as nodes, and each node's
// portrait is repaired afterwards from the images actually found in the
// documents when the model picked nothing usable.
func Graph(ctx context.Context, c *llm.Client, model, keyword string, docs []domain.Document) (*domain.Graph, error) {
	prompt := graphPrompt(keyword, docs)
	temp := graphTemperature

	msgs := []llm.Message{
		{Role: "system", Content: graphSystemPrompt},
		{Role: "user", Content: prompt},
	}
	resp, err := c.Chat(ctx, model, msgs, &temp)
	if err != nil {
		return nil, fmt.Errorf("graph generation: %w", err)
	}

	var graph domain.Graph
	if err := unmarshalObject(resp, &graph); err != nil {
		return nil, fmt.Errorf("graph generation: unparseable response: %w", err)
	}

	fixed := repairImages(&graph, imageFallbacks(docs))
	log.Info().
		Int("characters", len(graph.Characters)).
		Int("relationships", len(graph.Relationships)).
		Int("image_fallbacks", fixed).
		Msg("relationship graph generated")
	return &graph, nil
}

// graphPrompt assembles the combined-document prompt: per-document text
// clipped, its real image URLs listed for portrait selection, and the roster
// of character documents the model must keep.
func graphPrompt(keyword string, docs []domain.Document) string {
	var b strings.Builder
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "Unknown"
		}
		fmt.Fprintf(&b, "\n\n=== %s ===\n", title)

		if urls := realImageURLs(doc.ImageURLs); len(urls) > 0 {
			fmt.Fprintf(&b, "\n[이 문서의 이미지 목록 - 인물 '%s'와 관련된 이미지]\n", title)
			for i, ref := range urls {
				if i >= graphImagesPerDoc {
					fmt.Fprintf(&b, "... 외 %d개 이미지 더 있음\n", len(urls)-graphImagesPerDoc)
					break
				}
				fmt.Fprintf(&b, "%d. %s", i+1, ref.URL)
				if ref.Alt != "" {
					fmt.Fprintf(&b, " (alt: %s)", ref.Alt)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		b.WriteString(clipRunes(doc.Text, graphDocClipRunes))
	}

	combined := b.String()
	if r := []rune(combined); len(r) > graphTotalClipRunes {
		combined = string(r[:graphTotalClipRunes]) + "\n\n... (내용이 길어 일부 생략) ..."
	}

	roster := characterRoster(docs)

	return fmt.Sprintf(`다음은 "%s"에 대한 나무위키 문서들의 내용입니다.

%s%s

위 문서들을 분석하여 등장하는 인물들의 관계를 그래프 형태로 정리해주세요.

요구사항:
1. 각 인물의 이름, 이미지 src (있으면), 기본 설명을 포함
   - 각 문서의 [이 문서의 이미지 목록] 섹션을 참고하여, 해당 인물과 가장 관련이 있는 이미지의 src를 선택해주세요
   - 인물의 얼굴이나 전체 모습을 보여주는 이미지를 우선 선택하세요
   - 로고, 아이콘, 배경 이미지 등은 제외하세요
   - 반드시 https://로 시작하는 실제 이미지 URL만 선택하세요
   - 해당 인물 문서에 이미지가 없으면 null로 설정하세요
2. 인물 간의 관계를 간선(edge)으로 표현
3. 각 간선에는 관계 설명을 상세하게 포함 (최소 10자 이상, 최대 30자 정도)
   - 단순히 "친구", "적" 같은 한 단어가 아닌 구체적인 설명
   - 가능하면 관계의 맥락이나 배경을 포함 (예: "과거 동료였던 적대 관계")
4. 방향성이 있는 관계는 화살표로 표현 (A -> B: A가 B에게 관계)
5. 제공된 인물 문서의 인물들을 모두 포함하고, 문서에서 언급된 다른 주요 인물들도 추가하세요
6. JSON 형태로 응답해주세요

응답 형식:
{
  "characters": [
    {"name": "인물명", "image_src": "이미지경로 또는 null", "description": "기본 설명"}
  ],
  "relationships": [
    {"from": "인물A", "to": "인물B", "relation": "관계 설명"}
  ]
}

설명이나 다른 텍스트는 포함하지 말고 JSON만 응답해주세요.`, keyword, combined, roster)
}

// characterRoster lists the character-typed documents the graph must retain.
func characterRoster(docs []domain.Document) string {
	var names []string
	for _, d := range docs {
		if d.Type == domain.TypeCharacter && d.Title != "" {
			names = append(names, d.Title)
		}
	}
	if len(names) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n중요: 위 문서들 중 다음 %d명의 인물들의 문서가 포함되어 있습니다:\n", len(names))
	for i, n := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n)
	}
	fmt.Fprintf(&b, "\n이 %d명의 인물들은 반드시 그래프에 포함되어야 하며, 문서에서 언급된 다른 주요 인물들도 추가하여 최소 %d명 이상의 인물을 포함해주세요.\n",
		len(names), len(names)+5)
	return b.String()
}

// realImageURLs filters refs down to fetchable http(s) URLs, dropping raw
// wiki file references.
func realImageURLs(refs []domain.ImageRef) []domain.ImageRef {
	var out []domain.ImageRef
	for _, r := range refs {
		if strings.HasPrefix(r.URL, "http") {
			out = append(out, r)
		}
	}
	return out
}

// imageFallbacks maps character names (and their cleaned variants, with any
// parenthetical or subpage suffix stripped) to the real image URLs found in
// their documents.
func imageFallbacks(docs []domain.Document) map[string][]string {
	fallbacks := make(map[string][]string)
	for _, doc := range docs {
		if doc.Title == "" {
			continue
		}
		var urls []string
		for _, r := range realImageURLs(doc.ImageURLs) {
			urls = append(urls, r.URL)
		}
		if len(urls) == 0 {
			continue
		}
		fallbacks[doc.Title] = urls
		if clean := cleanName(doc.Title); clean != "" {
			fallbacks[clean] = urls
		}
	}
	return fallbacks
}

// cleanName strips a title at its first '(' or '/', e.g. "산(모노노케 히메)"
// → "산".
func cleanName(name string) string {
	name = strings.SplitN(name, "(", 2)[0]
	name = strings.SplitN(name, "/", 2)[0]
	return strings.TrimSpace(name)
}

// repairImages normalizes every node's portrait: model picks that are not
// real URLs are discarded, and empty picks fall back to the first image
// collected for that character's document. Returns how many nodes were
// backfilled.
func repairImages(g *domain.Graph, fallbacks map[string][]string) int {
	fixed := 0
	for i := range g.Characters {
		ch := &g.Characters[i]
		if ch.ImageSrc != nil && !strings.HasPrefix(*ch.ImageSrc, "http") {
			ch.ImageSrc = nil
		}
		if ch.ImageSrc != nil && (*ch.ImageSrc == "" || *ch.ImageSrc == "null") {
			ch.ImageSrc = nil
		}
		if ch.ImageSrc != nil || ch.Name == "" {
			continue
		}
		urls, ok := fallbacks[ch.Name]
		if !ok {
			urls, ok = fallbacks[cleanName(ch.Name)]
		}
		if ok && len(urls) > 0 {
			u := urls[0]
			ch.ImageSrc = &u
			fixed++
		}
	}
	return fixed
}
