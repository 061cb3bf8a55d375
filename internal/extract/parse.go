// Package extract turns LLM responses into structured results: the character
// name list for a work and the full relationship graph. Models are asked for
// bare JSON, but responses arrive wrapped in markdown fences or prose often
// enough that parsing tries several salvage strategies before giving up.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// stripFences removes a surrounding markdown code fence (``` or ```json),
// returning the inner text. Input without a fence is returned unchanged.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= 2 {
		return s
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// clipDelimited cuts s down to the span between the first open delimiter and
// the last close delimiter, inclusive. Returns s unchanged when no such span
// exists.
func clipDelimited(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// unmarshalArray parses an LLM response expected to be a JSON string array.
// Strategies, in order: strip fences, clip to the outermost brackets, direct
// parse.
func unmarshalArray(text string, out *[]string) error {
	cleaned := clipDelimited(stripFences(text), '[', ']')
	return json.Unmarshal([]byte(cleaned), out)
}

// unmarshalObject parses an LLM response expected to be a JSON object.
func unmarshalObject(text string, out any) error {
	cleaned := clipDelimited(stripFences(text), '{', '}')
	return json.Unmarshal([]byte(cleaned), out)
}

// quotedRE captures single- or double-quoted spans; the salvage path for
// responses that were supposed to be a JSON array but did not parse.
var quotedRE = regexp.MustCompile(`["']([^"']+)["']`)

// salvageQuoted pulls every quoted string out of a malformed response.
func salvageQuoted(text string) []string {
	var out []string
	for _, m := range quotedRE.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// clipRunes truncates s to at most n runes.
func clipRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
