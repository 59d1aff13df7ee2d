package samples

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loopguard/internal/core/repetition"
	perr "loopguard/internal/platform/errors"
)

func TestLoad_Embedded(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Queries) == 0 || len(s.Responses) < 5 {
		t.Fatalf("queries=%d responses=%d", len(s.Queries), len(s.Responses))
	}
}

func TestEmbedded_VerdictsHold(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range s.Responses {
		t.Run(r.Name, func(t *testing.T) {
			res := repetition.Detect(r.Text)
			if got := string(res.Verdict()); got != r.Expect {
				t.Fatalf("verdict = %s, want %s (%+v)", got, r.Expect, res.Matches)
			}
			if r.Unit == "" {
				return
			}
			if m, _ := res.Primary(); m.Unit != r.Unit {
				t.Fatalf("unit = %q, want %q", m.Unit, r.Unit)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		code perr.ErrorCode
	}{
		{"empty", "", perr.ErrorCodeDecode},
		{"unknown field", "responses:\n  - name: a\n    text: b\n    expect: cjk\n    verdict: x\n", perr.ErrorCodeDecode},
		{"no responses", "queries: [a]\n", perr.ErrorCodeValidation},
		{"bad expect", "responses:\n  - name: a\n    text: b\n    expect: maybe\n", perr.ErrorCodeValidation},
		{"missing text", "responses:\n  - name: a\n    expect: cjk\n", perr.ErrorCodeValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(c.doc))
			if !perr.IsCode(err, c.code) {
				t.Fatalf("want %s, got %v", c.code, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	doc := "queries: [hi]\nresponses:\n  - name: loop\n    text: 好好好好好好\n    expect: cjk\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil || len(s.Responses) != 1 || s.Responses[0].Expect != "cjk" {
		t.Fatalf("LoadFile = %+v, %v", s, err)
	}
	if _, err := LoadFile(path + ".missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
