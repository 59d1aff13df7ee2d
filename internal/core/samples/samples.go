// Package samples ships demo queries and problematic responses, each response
// annotated with the verdict the default detector gives it
package samples

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"os"

	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/validate"

	"github.com/goccy/go-yaml"
)

//go:embed samples.yaml
var embedded []byte

// Response is a generated answer and the verdict expected for it
type Response struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Text   string `yaml:"text" json:"text" validate:"required"`
	Expect string `yaml:"expect" json:"expect" validate:"oneof=no_match generic cjk"`
	Unit   string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Note   string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Set is a sample document
type Set struct {
	Queries   []string   `yaml:"queries" json:"queries" validate:"dive,required"`
	Responses []Response `yaml:"responses" json:"responses" validate:"required,min=1,dive"`
}

// Load returns the embedded sample set
func Load() (Set, error) { return Decode(bytes.NewReader(embedded)) }

// LoadFile reads a sample set from path
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "samples file %s", path)
		}
		return Set{}, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a sample set
func Decode(r io.Reader) (Set, error) {
	var s Set
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Set{}, perr.Decodef("samples document is empty")
		}
		return Set{}, perr.Wrap(err, perr.ErrorCodeDecode, "decode samples")
	}
	if err := validate.Struct(s); err != nil {
		return Set{}, perr.WithOp(err, "samples.Decode")
	}
	return s, nil
}
