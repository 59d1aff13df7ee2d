package profile

import "loopguard/internal/platform/config"

// FromConfig overlays env values on base. Keys, under conf's prefix:
//
//	NAME                replaces base with a built-in profile first
//	TEMPERATURE, MAX_TOKENS, TOP_P, TOP_K,
//	REPETITION_PENALTY, FREQUENCY_PENALTY, PRESENCE_PENALTY
func FromConfig(conf config.Conf, base Profile) (Profile, error) {
	if conf.Has("NAME") {
		p, err := ForName(conf.MayString("NAME", ""))
		if err != nil {
			return Profile{}, err
		}
		base = p
	}
	p := base
	p.Temperature = conf.MayFloat64("TEMPERATURE", p.Temperature)
	p.MaxTokens = conf.MayInt("MAX_TOKENS", p.MaxTokens)
	p.TopP = conf.MayFloat64("TOP_P", p.TopP)
	p.TopK = conf.MayInt("TOP_K", p.TopK)
	p.RepetitionPenalty = conf.MayFloat64("REPETITION_PENALTY", p.RepetitionPenalty)
	p.FrequencyPenalty = conf.MayFloat64("FREQUENCY_PENALTY", p.FrequencyPenalty)
	p.PresencePenalty = conf.MayFloat64("PRESENCE_PENALTY", p.PresencePenalty)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
