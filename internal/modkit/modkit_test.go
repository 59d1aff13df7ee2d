package modkit

import (
	"testing"

	"loopguard/internal/platform/config"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" {
		t.Fatalf("default Name = %q, want empty", b.Name)
	}
	if b.Ports != nil {
		t.Fatalf("default Ports non-nil")
	}
}

func TestBuild_WithOptions(t *testing.T) {
	t.Parallel()

	type ports struct {
		X int
		Y string
	}
	p := ports{X: 7, Y: "ok"}

	b := Build(WithName("scan"), WithPorts(p))
	if b.Name != "scan" {
		t.Fatalf("Name = %q, want %q", b.Name, "scan")
	}
	if got, ok := b.Ports.(ports); !ok || got != p {
		t.Fatalf("Ports mismatch after Build")
	}
}

func TestBuild_LaterOptionsWin(t *testing.T) {
	t.Parallel()

	b := Build(WithName("a"), WithName("b"), WithPorts(1), WithPorts("two"))
	if b.Name != "b" {
		t.Fatalf("Name = %q, want b", b.Name)
	}
	if s, ok := b.Ports.(string); !ok || s != "two" {
		t.Fatalf("Ports = %#v, want \"two\"", b.Ports)
	}
}

func TestDeps_ZeroValue_IsOK(t *testing.T) {
	t.Setenv("LOOPGUARD_SCAN_WORKERS", "3")

	var d Deps
	if got := d.Cfg.Prefix("LOOPGUARD_SCAN_").MayInt("WORKERS", 1); got != 3 {
		t.Fatalf("zero Cfg MayInt = %d, want 3", got)
	}
	d = Deps{Cfg: config.New()}
	if !d.Cfg.Has("LOOPGUARD_SCAN_WORKERS") {
		t.Fatal("Cfg should see process env")
	}
	// nil recorder is a no-op
	d.Metrics.ObserveStream("tripped")
}
