// Package llmoutput extracts chain-of-thought and answers from complete,
// non-streamed model output that carries inline <think> or <thinking> tags,
// and pulls JSON payloads out of free-form answers.
package llmoutput

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned by ExtractJSON when the output holds no parseable JSON.
var ErrNoJSON = errors.New("no JSON found in model output")

// tagPair is an open/close tag pair. Pairs are tried in order.
type tagPair struct {
	open, close string
}

var tagPairs = []tagPair{
	{"<think>", "</think>"},
	{"<thinking>", "</thinking>"},
}

// ExtractThinkChain returns the trimmed text between the first reasoning
// open tag and its matching close tag, or "" when there is no complete
// reasoning block.
func ExtractThinkChain(text string) string {
	for _, tp := range tagPairs {
		start := strings.Index(text, tp.open)
		if start < 0 {
			continue
		}
		body := text[start+len(tp.open):]
		end := strings.Index(body, tp.close)
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(body[:end])
	}
	return ""
}

// ExtractAnswer removes the first complete reasoning block and returns the
// text around it, each side trimmed and joined by a single space. Text
// without a complete block is returned unchanged, so the function is
// idempotent on plain answers.
func ExtractAnswer(text string) string {
	for _, tp := range tagPairs {
		before, rest, found := strings.Cut(text, tp.open)
		if !found {
			continue
		}
		_, after, found := strings.Cut(rest, tp.close)
		if !found {
			continue
		}
		return strings.TrimSpace(strings.TrimSpace(before) + " " + strings.TrimSpace(after))
	}
	return text
}

// Split separates output into its reasoning and answer parts.
func Split(text string) (reasoning, answer string) {
	return ExtractThinkChain(text), ExtractAnswer(text)
}

// HasThinkPrefix reports whether text opens with a reasoning tag.
func HasThinkPrefix(text string) bool {
	for _, tp := range tagPairs {
		if strings.HasPrefix(text, tp.open) {
			return true
		}
	}
	return false
}

// ExtractJSON decodes a JSON value from model output. A leading reasoning
// block is dropped first; then the whole answer is tried, then the body of
// a ```json fenced block.
func ExtractJSON(output string) (any, error) {
	if strings.HasPrefix(strings.TrimSpace(output), "<think") {
		output = ExtractAnswer(output)
	}

	var v any
	if err := json.Unmarshal([]byte(output), &v); err == nil {
		return v, nil
	}

	start := strings.Index(output, "```json")
	end := strings.LastIndex(output, "```")
	if start < 0 || end < start+len("```json") {
		return nil, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(output[start+len("```json"):end]), &v); err != nil {
		return nil, errors.Join(ErrNoJSON, err)
	}
	return v, nil
}
