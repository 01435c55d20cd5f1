package llm

import "sort"

// ModelInfo describes a model the bridge knows about.
// Prices are per million tokens; local models are free.
type ModelInfo struct {
	MaxTokens           int     `json:"max_tokens"`
	ContextWindow       int     `json:"context_window"`
	SupportsImages      bool    `json:"supports_images"`
	SupportsPromptCache bool    `json:"supports_prompt_cache"`
	InputPrice          float64 `json:"input_price"`
	OutputPrice         float64 `json:"output_price"`
	Description         string  `json:"description"`
}

// ModelSelection is a resolved model id and its metadata.
type ModelSelection struct {
	ID   string    `json:"id"`
	Info ModelInfo `json:"info"`
}

// Local model identifiers.
const (
	// ModelQwen25Coder7B is Qwen2.5-Coder 7B: default, fits consumer GPUs.
	ModelQwen25Coder7B = "qwen2.5-coder:7b"
	// ModelQwen25Coder14B is Qwen2.5-Coder 14B.
	ModelQwen25Coder14B = "qwen2.5-coder:14b"
	// ModelQwen25Coder32B is Qwen2.5-Coder 32B: strongest local coder.
	ModelQwen25Coder32B = "qwen2.5-coder:32b"
	// ModelLlama31_8B is Llama 3.1 8B Instruct.
	ModelLlama31_8B = "llama3.1:8b"
	// ModelLlama32_3B is Llama 3.2 3B: small and fast.
	ModelLlama32_3B = "llama3.2:3b"
	// ModelMistralNemo is Mistral NeMo 12B.
	ModelMistralNemo = "mistral-nemo:12b"
	// ModelDeepSeekCoderV2 is DeepSeek-Coder-V2 Lite 16B.
	ModelDeepSeekCoderV2 = "deepseek-coder-v2:16b"
)

// DefaultModelID is used when no model, or an unknown model, is configured.
const DefaultModelID = ModelQwen25Coder7B

var modelCatalog = map[string]ModelInfo{
	ModelQwen25Coder7B: {
		MaxTokens:     8192,
		ContextWindow: 32768,
		Description:   "Qwen2.5-Coder 7B Instruct",
	},
	ModelQwen25Coder14B: {
		MaxTokens:     8192,
		ContextWindow: 32768,
		Description:   "Qwen2.5-Coder 14B Instruct",
	},
	ModelQwen25Coder32B: {
		MaxTokens:     8192,
		ContextWindow: 32768,
		Description:   "Qwen2.5-Coder 32B Instruct",
	},
	ModelLlama31_8B: {
		MaxTokens:     4096,
		ContextWindow: 131072,
		Description:   "Llama 3.1 8B Instruct",
	},
	ModelLlama32_3B: {
		MaxTokens:     4096,
		ContextWindow: 131072,
		Description:   "Llama 3.2 3B Instruct",
	},
	ModelMistralNemo: {
		MaxTokens:     4096,
		ContextWindow: 131072,
		Description:   "Mistral NeMo 12B Instruct",
	},
	ModelDeepSeekCoderV2: {
		MaxTokens:     8192,
		ContextWindow: 163840,
		Description:   "DeepSeek-Coder-V2 Lite Instruct",
	},
}

// ResolveModel looks configuredID up in the model catalog.
// An empty or unknown id resolves to DefaultModelID. Never fails.
func ResolveModel(configuredID string) ModelSelection {
	if info, ok := modelCatalog[configuredID]; ok {
		return ModelSelection{ID: configuredID, Info: info}
	}
	return ModelSelection{ID: DefaultModelID, Info: modelCatalog[DefaultModelID]}
}

// KnownModels returns every catalog entry sorted by id.
func KnownModels() []ModelSelection {
	result := make([]ModelSelection, 0, len(modelCatalog))
	for id, info := range modelCatalog {
		result = append(result, ModelSelection{ID: id, Info: info})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
