package providertest

import "strings"

// Script is a scripted completion, delivered token by token when streamed.
type Script struct {
	Reasoning []string
	Content   []string

	// Malformed injects one unparseable record between reasoning and content.
	Malformed bool

	// Status, when non-zero, makes the backend fail with this HTTP status
	// and ErrorMessage instead of answering.
	Status       int
	ErrorMessage string
}

// Text returns the joined content tokens.
func (s Script) Text() string { return strings.Join(s.Content, "") }

// ReasoningText returns the joined reasoning tokens.
func (s Script) ReasoningText() string { return strings.Join(s.Reasoning, "") }

var (
	helloTokens     = []string{"Hello", ", ", "nice", " ", "day", "!"}
	countTokens     = []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	reasoningTokens = []string{"Let me ", "work ", "this out."}
)

// ScriptFor picks the reply for a prompt. Keywords, matched case
// insensitively:
//
//	"rate limit"        429 error
//	"server error"      500 error
//	"count from 1 to 5" content "1, 2, 3, 4, 5"
//	"inline"            reasoning inlined in the content as <think>...</think>
//	"malformed"         reasoning, one broken record, then content
//	"think"             reasoning, then content
//
// Anything else gets "Hello, nice day!" without reasoning.
func ScriptFor(prompt string) Script {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "rate limit"):
		return Script{Status: 429, ErrorMessage: "rate limit exceeded"}
	case strings.Contains(p, "server error"):
		return Script{Status: 500, ErrorMessage: "model crashed"}
	case strings.Contains(p, "count from 1 to 5"):
		return Script{Content: countTokens}
	case strings.Contains(p, "inline"):
		return Script{Content: []string{"<think>", "Let me plan", "</think>", "\n\n", "The answer is 4."}}
	case strings.Contains(p, "malformed"):
		return Script{Reasoning: reasoningTokens, Content: helloTokens, Malformed: true}
	case strings.Contains(p, "think"):
		return Script{Reasoning: reasoningTokens, Content: helloTokens}
	default:
		return Script{Content: helloTokens}
	}
}
