// Package profile holds sampling-parameter profiles handed to the text generator.
// The detector never reads them; they are the first line of defense against loops,
// the detector the second.
package profile

import (
	"sort"
	"strings"

	"loopguard/internal/core/langhint"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/validate"
)

// Profile is one set of generation parameters
type Profile struct {
	Name              string  `yaml:"name,omitempty" json:"name,omitempty"`
	Temperature       float64 `yaml:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int     `yaml:"max_tokens" json:"max_tokens" validate:"min=1"`
	TopP              float64 `yaml:"top_p" json:"top_p" validate:"gt=0,lte=1"`
	TopK              int     `yaml:"top_k" json:"top_k" validate:"min=0"`
	RepetitionPenalty float64 `yaml:"repetition_penalty" json:"repetition_penalty" validate:"gt=0,lte=2"`
	FrequencyPenalty  float64 `yaml:"frequency_penalty" json:"frequency_penalty" validate:"gte=-2,lte=2"`
	PresencePenalty   float64 `yaml:"presence_penalty" json:"presence_penalty" validate:"gte=-2,lte=2"`
}

// Names of the built-in profiles
const (
	NameChinese = "chinese"
	NameDefault = "default"
)

// Chinese is tuned against short-unit loops in Chinese output: low temperature,
// a tighter nucleus, and a repetition penalty above 1
func Chinese() Profile {
	return Profile{
		Name:              NameChinese,
		Temperature:       0.3,
		MaxTokens:         600,
		TopP:              0.8,
		TopK:              40,
		RepetitionPenalty: 1.15,
		FrequencyPenalty:  0.3,
		PresencePenalty:   0.1,
	}
}

// Default is a general chat profile
func Default() Profile {
	return Profile{
		Name:              NameDefault,
		Temperature:       0.7,
		MaxTokens:         512,
		TopP:              0.9,
		TopK:              40,
		RepetitionPenalty: 1.1,
	}
}

var aliases = map[string]func() Profile{
	"zh":        Chinese,
	"zh-cn":     Chinese,
	NameChinese: Chinese,
	NameDefault: Default,
	"":          Default,
}

// ForName returns a built-in profile by name or alias (case-insensitive)
func ForName(name string) (Profile, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f(), nil
	}
	return Profile{}, perr.WithField(perr.NotFoundf("unknown profile %q (have %s)", name, strings.Join(Names(), ", ")), "profile")
}

// Names lists the accepted profile names, sorted
func Names() []string {
	out := make([]string, 0, len(aliases))
	for k := range aliases {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ForText picks Chinese for Chinese-dominant text and Default otherwise
func ForText(text string) Profile {
	if langhint.IsChinese(text) {
		return Chinese()
	}
	return Default()
}

// Keys lists the parameter keys in display order
func Keys() []string {
	return []string{
		"temperature",
		"max_tokens",
		"top_p",
		"top_k",
		"repetition_penalty",
		"frequency_penalty",
		"presence_penalty",
	}
}

// Map exposes the parameters by key
func (p Profile) Map() map[string]any {
	return map[string]any{
		"temperature":        p.Temperature,
		"max_tokens":         p.MaxTokens,
		"top_p":              p.TopP,
		"top_k":              p.TopK,
		"repetition_penalty": p.RepetitionPenalty,
		"frequency_penalty":  p.FrequencyPenalty,
		"presence_penalty":   p.PresencePenalty,
	}
}

// Validate checks parameter ranges
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return perr.WithOp(err, "profile.Validate")
	}
	return nil
}
