package profile

import (
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ApplyOpenAI copies the parameters an OpenAI chat completion accepts onto req.
// top_k and repetition_penalty have no OpenAI equivalent and are left out
func (p Profile) ApplyOpenAI(req *openai.ChatCompletionRequest) {
	if req == nil {
		return
	}
	req.Temperature = float32(p.Temperature)
	req.MaxTokens = p.MaxTokens
	req.TopP = float32(p.TopP)
	req.FrequencyPenalty = float32(p.FrequencyPenalty)
	req.PresencePenalty = float32(p.PresencePenalty)
}

// GenAIConfig maps the profile onto a Gemini generation config.
// repetition_penalty has no Gemini equivalent
func (p Profile) GenAIConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(p.Temperature)),
		MaxOutputTokens:  int32(p.MaxTokens),
		TopP:             genai.Ptr(float32(p.TopP)),
		TopK:             genai.Ptr(float32(p.TopK)),
		FrequencyPenalty: genai.Ptr(float32(p.FrequencyPenalty)),
		PresencePenalty:  genai.Ptr(float32(p.PresencePenalty)),
	}
}
