package module

import (
	"strings"

	"loopguard/internal/core/repetition"
	"loopguard/internal/platform/config"
)

// Options holds configuration settings for the scan module
type Options struct {
	Workers  int
	PageSize int
	DryRun   bool
	Detector repetition.Options
}

// FromConfig extracts Options from LOOPGUARD_SCAN_* and the per-rule
// LOOPGUARD_RULE_<NAME>_* overrides
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("LOOPGUARD_SCAN_")
	rules := repetition.DefaultRules()
	for i := range rules {
		r := &rules[i]
		rc := cfg.Prefix("LOOPGUARD_RULE_" + strings.ToUpper(string(r.Name)) + "_")
		r.MinUnit = rc.MayInt("MIN_UNIT", r.MinUnit)
		r.MaxUnit = rc.MayInt("MAX_UNIT", r.MaxUnit)
		r.MinRepeats = rc.MayInt("MIN_REPEATS", r.MinRepeats)
		r.TailSlack = rc.MayInt("TAIL_SLACK", r.TailSlack)
	}
	return Options{
		Workers:  sc.MayInt("WORKERS", 2),
		PageSize: sc.MayInt("PAGE_SIZE", 256),
		DryRun:   sc.MayBool("DRY_RUN", false),
		Detector: repetition.Options{
			Rules:        rules,
			Normalize:    sc.MayBool("NORMALIZE", false),
			SkipCode:     sc.MayBool("SKIP_CODE", false),
			MaxScanRunes: sc.MayInt("MAX_SCAN_RUNES", 0),
		},
	}
}

// merge lays non-zero overrides over cfg; true bools win
func merge(cfg, o Options) Options {
	if o.Workers != 0 {
		cfg.Workers = o.Workers
	}
	if o.PageSize != 0 {
		cfg.PageSize = o.PageSize
	}
	if o.Detector.MaxScanRunes != 0 {
		cfg.Detector.MaxScanRunes = o.Detector.MaxScanRunes
	}
	if len(o.Detector.Rules) > 0 {
		cfg.Detector.Rules = o.Detector.Rules
	}
	cfg.DryRun = cfg.DryRun || o.DryRun
	cfg.Detector.Normalize = cfg.Detector.Normalize || o.Detector.Normalize
	cfg.Detector.SkipCode = cfg.Detector.SkipCode || o.Detector.SkipCode
	return cfg
}
