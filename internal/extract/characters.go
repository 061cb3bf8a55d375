package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nmkim/go-castgraph-backend/internal/llm"
)

// DefaultMaxCharacters bounds how many names one extraction may return.
const DefaultMaxCharacters = 20

// docClipRunes caps how much of each source document reaches the prompt.
const docClipRunes = 8000

const characterSystemPrompt = "당신은 나무위키 문서에서 등장인물 이름을 정확히 추출하는 전문가입니다. JSON 배열 형태로만 응답합니다."

// characterPrompt builds the two-document extraction prompt.
func characterPrompt(keyword, mainText, castText string, max int) string {
	return fmt.Sprintf(`다음은 "%s"에 대한 나무위키 문서 두 개입니다.

[메인 문서]
%s

[등장인물 목록 문서]
%s

위 두 문서에서 "%s"에 정확히 속하는 등장인물의 이름만 추출해주세요.
- 지역명, 기관명, 팀명 등은 제외하고 실제 인물 이름만 추출
- 문서에 링크로 등장하는 인물명을 우선적으로 추출
- 최대 %d명까지만 추출해주세요
- JSON 배열 형태로만 응답해주세요 (예: ["인물1", "인물2", "인물3"])
- 설명이나 다른 텍스트는 포함하지 마세요.`,
		keyword, clipRunes(mainText, docClipRunes), clipRunes(castText, docClipRunes), keyword, max)
}

// Characters asks the model to name the characters of a work, given the
// work's main document and (possibly empty) character-list document. The
// result is capped at max names (DefaultMaxCharacters when max <= 0).
//
// A response that fails to parse as a JSON array falls back to collecting
// quoted strings; only a completely unusable response yields an error.
func Characters(ctx context.Context, c *llm.Client, keyword, mainText, castText string, max int) ([]string, error) {
	if max <= 0 {
		max = DefaultMaxCharacters
	}

	msgs := []llm.Message{
		{Role: "system", Content: characterSystemPrompt},
		{Role: "user", Content: characterPrompt(keyword, mainText, castText, max)},
	}
	resp, err := c.Chat(ctx, "", msgs, nil)
	if err != nil {
		return nil, fmt.Errorf("character extraction: %w", err)
	}

	var names []string
	if err := unmarshalArray(resp, &names); err != nil {
		names = salvageQuoted(resp)
		if len(names) == 0 {
			return nil, fmt.Errorf("character extraction: unparseable response: %w", err)
		}
		log.Warn().Int("names", len(names)).Msg("character list salvaged from malformed response")
	}

	if len(names) > max {
		names = names[:max]
	}
	return names, nil
}
