package profile

import (
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	perr "loopguard/internal/platform/errors"

	"github.com/goccy/go-yaml"
)

// document is the on-disk shape:
//
//	profiles:
//	  zh:
//	    temperature: 0.3
//	    ...
type document struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads named profiles from YAML. Every profile is validated and named after its key
func Load(r io.Reader) (map[string]Profile, error) {
	var doc document
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, perr.Decodef("profile document is empty")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeDecode, "decode profiles")
	}
	if len(doc.Profiles) == 0 {
		return nil, perr.Decodef("profile document has no profiles")
	}
	names := make([]string, 0, len(doc.Profiles))
	for name := range doc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := doc.Profiles[name]
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, perr.Wrapf(err, perr.CodeOf(err), "profile %q", name)
		}
		doc.Profiles[name] = p
	}
	return doc.Profiles, nil
}

// LoadFile is Load over a file
func LoadFile(path string) (map[string]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "profile file %s", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Lookup resolves name against set first, then the built-in profiles
func Lookup(set map[string]Profile, name string) (Profile, error) {
	if p, ok := set[name]; ok {
		return p, nil
	}
	if p, ok := set[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return ForName(name)
}
