// Package module implements the report module
package module

import (
	"loopguard/internal/core/profile"
	"loopguard/internal/core/repetition"
	"loopguard/internal/core/samples"
	"loopguard/internal/modkit"
	"loopguard/internal/services/report/domain"
	"loopguard/internal/services/report/service"
)

// Name is the registry name of the report module
const Name = "report"

// Options for the report module
type Options struct {
	Profile      string // profile name; "" means chinese
	ProfilesPath string // YAML profiles searched before the built-ins
	SamplesPath  string // YAML override of the embedded samples
	Model        string // OpenAI model in the request preview; "" reads LOOPGUARD_REPORT_MODEL
	Detector     *repetition.Detector
}

// Ports exposed by the report module
type Ports struct {
	Reporter domain.ReporterPort
}

// Module implements modkit.Module
type Module struct {
	deps    modkit.Deps
	profile profile.Profile
	ports   Ports
}

// New loads the samples and resolves the profile: the named profile from
// ProfilesPath or the built-ins first, then LOOPGUARD_PROFILE_* overrides from deps.Cfg
func New(deps modkit.Deps, o Options) (*Module, error) {
	set, err := loadSamples(o.SamplesPath)
	if err != nil {
		return nil, err
	}

	name := o.Profile
	if name == "" {
		name = profile.NameChinese
	}
	base, err := resolveProfile(o.ProfilesPath, name)
	if err != nil {
		return nil, err
	}
	p, err := profile.FromConfig(deps.Cfg.Prefix("LOOPGUARD_PROFILE_"), base)
	if err != nil {
		return nil, err
	}

	deps.Log.Debug().Str("profile", p.Name).Int("queries", len(set.Queries)).
		Int("responses", len(set.Responses)).Msg("report module ready")

	svc := service.New(set, o.Detector, p)
	if o.Model != "" {
		svc.Model = o.Model
	} else {
		svc.Model = deps.Cfg.Prefix("LOOPGUARD_REPORT_").MayString("MODEL", service.DefaultModel)
	}

	return &Module{
		deps:    deps,
		profile: p,
		ports:   Ports{Reporter: svc},
	}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Profile returns the resolved parameter profile
func (m *Module) Profile() profile.Profile { return m.profile }

func resolveProfile(path, name string) (profile.Profile, error) {
	if path == "" {
		return profile.ForName(name)
	}
	set, err := profile.LoadFile(path)
	if err != nil {
		return profile.Profile{}, err
	}
	return profile.Lookup(set, name)
}

func loadSamples(path string) (samples.Set, error) {
	if path == "" {
		return samples.Load()
	}
	return samples.LoadFile(path)
}
