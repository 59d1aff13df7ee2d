// Package module implements the scan module
package module

import (
	"loopguard/internal/core/repetition"
	"loopguard/internal/modkit"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/services/scan/domain"
	"loopguard/internal/services/scan/service"
)

// Name is the registry name of the scan module
const Name = "scan"

// Ports exposed by the scan module
type Ports struct {
	Runner domain.RunnerPort
	Stream domain.StreamPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	cfg   Options
	det   *repetition.Detector
	ports Ports
}

// New constructs the scan module. Config comes from deps.Cfg with overrides laid
// over it. Reader and writer ports are injected with modkit.WithPorts(domain.Ports{...});
// without them only the stream port is usable
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{modkit.WithName(Name)}, opts...)...)

	var ports domain.Ports
	if b.Ports != nil {
		p, ok := b.Ports.(domain.Ports)
		if !ok {
			return nil, perr.InvalidArgf("scan module: expected WithPorts(scan/domain.Ports), got %T", b.Ports)
		}
		ports = p
	}

	cfg := merge(FromConfig(deps.Cfg), overrides)
	det, err := repetition.New(cfg.Detector)
	if err != nil {
		return nil, err
	}

	svc := service.New(ports.Reader, ports.Writer, det, deps.Metrics, service.Config{
		Workers:  cfg.Workers,
		PageSize: cfg.PageSize,
		DryRun:   cfg.DryRun,
	})

	deps.Log.Debug().
		Int("workers", svc.Cfg.Workers).
		Int("page", svc.Cfg.PageSize).
		Int("window", det.Window()).
		Strs("rules", ruleNames(cfg.Detector.Rules)).
		Msg("scan module ready")

	return &Module{
		deps:  deps,
		cfg:   cfg,
		det:   det,
		ports: Ports{Runner: svc, Stream: svc},
	}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the effective configuration
func (m *Module) Options() Options { return m.cfg }

// Detector returns the configured detector
func (m *Module) Detector() *repetition.Detector { return m.det }

func ruleNames(rs []repetition.Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r.Name)
	}
	return out
}
