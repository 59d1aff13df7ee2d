package config

import (
	"os"
	"path/filepath"
	"testing"

	kit "loopguard/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	scan := root.Prefix("LOOPGUARD_")
	if got := scan.key("WORKERS"); got != "LOOPGUARD_WORKERS" {
		t.Fatalf("key() = %q, want %q", got, "LOOPGUARD_WORKERS")
	}
	// nested prefix
	rule := scan.Prefix("RULE_")
	if got := rule.key("MIN_UNIT"); got != "LOOPGUARD_RULE_MIN_UNIT" {
		t.Fatalf("nested key() = %q, want %q", got, "LOOPGUARD_RULE_MIN_UNIT")
	}
}

func TestHas(t *testing.T) {
	c := New().Prefix("H_")
	if c.Has("MISSING") {
		t.Fatalf("Has(MISSING) should be false")
	}
	t.Setenv("H_BLANK", "   ")
	if c.Has("BLANK") {
		t.Fatalf("Has(BLANK) should treat whitespace as missing")
	}
	t.Setenv("H_SET", "x")
	if !c.Has("SET") {
		t.Fatalf("Has(SET) should be true")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  loopguard ")
	if got := c.MustString("NAME"); got != "loopguard" {
		t.Fatalf("MustString = %q, want %q", got, "loopguard")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

// May* fallbacks

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q, want %q", got, "def")
	}
	t.Setenv("S_NAME", " loopguard ")
	if got := c.MayString("NAME", "x"); got != "loopguard" {
		t.Fatalf("MayString value = %q, want %q", got, "loopguard")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want %d", got, 9)
	}
	t.Setenv("I_OK", " 7 ")
	if got := c.MayInt("OK", 0); got != 7 {
		t.Fatalf("MayInt ok = %d, want %d", got, 7)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d, want %d", got, 3)
	}
}

func TestMayFloat64(t *testing.T) {
	c := New().Prefix("F_")
	if got := c.MayFloat64("MISSING", 0.3); got != 0.3 {
		t.Fatalf("MayFloat64 default = %v", got)
	}
	t.Setenv("F_OK", "1.15")
	if got := c.MayFloat64("OK", 0); got != 1.15 {
		t.Fatalf("MayFloat64 ok = %v", got)
	}
	t.Setenv("F_BAD", "hot")
	if got := c.MayFloat64("BAD", 0.8); got != 0.8 {
		t.Fatalf("MayFloat64 bad -> default = %v", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); got != true {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("B_T", "true")
	if got := c.MayBool("T", false); got != true {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("B_BAD", "nope")
	if got := c.MayBool("BAD", false); got != false {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")

	// empty uses default and does not panic
	if got := c.MayEnum("MISS", "text", "text", "jsonl"); got != "text" {
		t.Fatalf("MayEnum default = %q, want %q", got, "text")
	}

	t.Setenv("E_FMT", "JSONL")
	if got := c.MayEnum("FMT", "text", "text", "jsonl"); got != "jsonl" {
		t.Fatalf("MayEnum allowed value = %q, want %q", got, "jsonl")
	}

	t.Setenv("E_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "text", "text", "jsonl") })
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "test.env")
	if err := os.WriteFile(p, []byte("DOTENV_ONE=1\nDOTENV_KEEP=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DOTENV_KEEP", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("DOTENV_ONE") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	c := New().Prefix("DOTENV_")
	if got := c.MayInt("ONE", 0); got != 1 {
		t.Fatalf("DOTENV_ONE = %d, want 1", got)
	}
	if got := c.MayString("KEEP", ""); got != "fromenv" {
		t.Fatalf("existing env should win, got %q", got)
	}
}
