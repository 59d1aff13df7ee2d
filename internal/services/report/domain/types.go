// Package domain defines the report produced from the demo samples
package domain

import (
	"context"
	"io"

	"loopguard/internal/core/repetition"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Query is a sample user query with the hints used to pick a profile
type Query struct {
	Text    string  `json:"text"`
	Script  string  `json:"script"`
	Lang    string  `json:"lang,omitempty"`
	HanFrac float64 `json:"han_frac"`
	Profile string  `json:"profile"`
}

// Response is a sample response with the detector verdict
type Response struct {
	Name     string             `json:"name"`
	Text     string             `json:"text"`
	Expect   string             `json:"expect"`
	Verdict  repetition.Verdict `json:"verdict"`
	Matches  []repetition.Match `json:"matches,omitempty"`
	Mismatch bool               `json:"mismatch,omitempty"`
	Note     string             `json:"note,omitempty"`
}

// Param is one row of the recommended parameter table
type Param struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Requests shows the profile as provider request parameters
type Requests struct {
	OpenAI *openai.ChatCompletionRequest `json:"openai"`
	Gemini *genai.GenerateContentConfig  `json:"gemini"`
}

// Report is the full demo output
type Report struct {
	Queries    []Query    `json:"queries"`
	Responses  []Response `json:"responses"`
	Profile    string     `json:"profile"`
	Params     []Param    `json:"params"`
	Requests   Requests   `json:"requests"`
	Mismatches int        `json:"mismatches"`
}

// ReporterPort builds and renders reports
type ReporterPort interface {
	Build(ctx context.Context) (Report, error)
	Render(w io.Writer, r Report, asJSON bool) error
}
