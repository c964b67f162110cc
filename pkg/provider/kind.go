package provider

import (
	"strings"

	"github.com/rhuss/thinkstream/pkg/stream"
)

// Kind identifies a backend family.
type Kind string

const (
	KindOpenAI      Kind = "openai"
	KindOllama      Kind = "ollama"
	KindZhipu       Kind = "zhipu"
	KindOpenRouter  Kind = "openrouter"
	KindSiliconFlow Kind = "siliconflow"
	KindDeepSeek    Kind = "deepseek"
)

// Kinds lists every supported backend family.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindOllama, KindZhipu, KindOpenRouter, KindSiliconFlow, KindDeepSeek}
}

// ParseKind resolves a provider name case-insensitively. Unknown names
// fall back to KindOpenAI, since most hosted backends speak that protocol.
func ParseKind(name string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k
		}
	}
	return KindOpenAI
}

// IsKnown reports whether name names a supported backend family.
func IsKnown(name string) bool {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Schema returns the streaming wire schema the backend family emits.
func (k Kind) Schema() stream.Schema {
	if k == KindOllama {
		return stream.SchemaJSONLines
	}
	return stream.SchemaSSE
}

// DefaultEndpoint returns the public API base for hosted backends, or the
// local default for ollama.
func (k Kind) DefaultEndpoint() string {
	switch k {
	case KindOllama:
		return "http://localhost:11434/api"
	case KindZhipu:
		return "https://open.bigmodel.cn/api/paas/v4"
	case KindOpenRouter:
		return "https://openrouter.ai/api/v1"
	case KindSiliconFlow:
		return "https://api.siliconflow.cn/v1"
	case KindDeepSeek:
		return "https://api.deepseek.com/v1"
	default:
		return "https://api.openai.com/v1"
	}
}
