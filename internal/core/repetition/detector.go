// Package repetition detects repetition loops in generated text: a unit of
// characters emitted back to back past a threshold. Two rule classes ship by
// default, a generic 5..20 character rule and a CJK rule with a shorter window,
// since one ideograph carries about as much as a Latin word.
//
// Detection is a pure function of the text and the detector options; a Detector
// is safe for concurrent use.
package repetition

import (
	"fmt"
	"reflect"

	"loopguard/internal/core/normalize"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/validate"
)

// Verdict summarizes a Result: NoMatch or the name of the primary rule that fired
type Verdict string

// NoMatch is the verdict when no rule fired
const NoMatch Verdict = "no_match"

// Match is one rule firing. Start/End are byte offsets of the repeated run in
// Result.Text (absolute stream offsets for Stream results)
type Match struct {
	Rule  RuleName `json:"rule"`
	Unit  string   `json:"unit"`
	Count int      `json:"count"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// Result is the outcome of one evaluation, at most one Match per rule in rule order
type Result struct {
	Matches []Match `json:"matches,omitempty"`

	// Text is the text that was scanned (the normalized text when Options.Normalize is set);
	// empty for Stream results
	Text string `json:"-"`

	primary int
}

// Matched reports whether any rule fired
func (r Result) Matched() bool { return len(r.Matches) > 0 }

// Primary returns the match of the highest-priority rule that fired
func (r Result) Primary() (Match, bool) {
	if len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[r.primary], true
}

// Verdict returns NoMatch or the primary rule name ("generic", "cjk")
func (r Result) Verdict() Verdict {
	if m, ok := r.Primary(); ok {
		return Verdict(m.Rule)
	}
	return NoMatch
}

// Rule returns the match for the named rule, if it fired
func (r Result) Rule(name RuleName) (Match, bool) {
	for _, m := range r.Matches {
		if m.Rule == name {
			return m, true
		}
	}
	return Match{}, false
}

// Rules lists the names of the rules that fired
func (r Result) Rules() []string {
	out := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, string(m.Rule))
	}
	return out
}

// Truncated returns Text cut right after the first occurrence of the primary unit,
// or Text unchanged when nothing fired
func (r Result) Truncated() string {
	m, ok := r.Primary()
	if !ok {
		return r.Text
	}
	return Truncate(r.Text, m)
}

// String renders a one-line summary
func (r Result) String() string {
	m, ok := r.Primary()
	if !ok {
		return string(NoMatch)
	}
	return fmt.Sprintf("%s: %q x%d", m.Rule, m.Unit, m.Count)
}

// Truncate cuts text right after the first occurrence of m's unit
func Truncate(text string, m Match) string {
	cut := m.Start + len(m.Unit)
	if m.Start < 0 || cut > len(text) || text[m.Start:cut] != m.Unit {
		return text
	}
	return text[:cut]
}

// Options controls detector behavior
type Options struct {
	Rules []Rule `yaml:"rules" validate:"required,min=1,dive"`

	// Normalize runs the text through normalize before scanning; offsets then
	// refer to Result.Text
	Normalize bool `yaml:"normalize"`

	// SkipCode ignores matches inside fenced or inline code
	SkipCode bool `yaml:"skip_code"`

	// MaxScanRunes scans only the trailing N runes when > 0
	MaxScanRunes int `yaml:"max_scan_runes" validate:"min=0"`
}

// DefaultOptions returns the generic and CJK rules with no pre-processing
func DefaultOptions() Options { return Options{Rules: DefaultRules()} }

// Detector runs the configured rules over text
type Detector struct {
	opts   Options
	norm   *normalize.Normalizer
	window int
}

// New validates opts and builds a Detector
func New(opts Options) (*Detector, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, perr.WithOp(err, "repetition.New")
	}
	rules := make([]Rule, len(opts.Rules))
	copy(rules, opts.Rules)
	opts.Rules = rules

	d := &Detector{opts: opts, norm: normalize.New()}
	for _, r := range rules {
		d.window = max(d.window, r.window())
	}
	return d, nil
}

// MustNew is New that panics on invalid options
func MustNew(opts Options) *Detector {
	d, err := New(opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Options returns a copy of the detector options
func (d *Detector) Options() Options {
	o := d.opts
	o.Rules = append([]Rule(nil), d.opts.Rules...)
	return o
}

// Window is the number of trailing runes a stream keeps: enough to hold the
// longest run any rule needs, and never below 40
func (d *Detector) Window() int { return max(d.window, 40) }

// Detect evaluates every rule over text
func (d *Detector) Detect(text string) Result {
	res := Result{Text: text}
	if text == "" {
		return res
	}
	if d.opts.Normalize {
		text = d.norm.Normalize(text)
		res.Text = text
	}

	start := 0
	if d.opts.MaxScanRunes > 0 {
		start = tailStart(text, d.opts.MaxScanRunes)
	}
	rt := decode(text[start:], start)

	var skip func(start, end int) bool
	if d.opts.SkipCode {
		if zones := normalize.DetectZones(text); len(zones) > 0 {
			skip = func(s, e int) bool { return normalize.Covered(zones, s, e) }
		}
	}

	res.Matches, res.primary = d.scan(rt, skip)
	return res
}

// DetectValue is Detect for loosely typed input: nil, nil pointers and
// non-text values are "no match" and never fail
func (d *Detector) DetectValue(v any) Result {
	switch x := v.(type) {
	case string:
		return d.Detect(x)
	case *string:
		if x == nil {
			return Result{}
		}
		return d.Detect(*x)
	case []byte:
		return d.Detect(string(x))
	case fmt.Stringer:
		if isNil(x) {
			return Result{}
		}
		return d.Detect(x.String())
	default:
		return Result{}
	}
}

func (d *Detector) scan(rt runeText, skip func(start, end int) bool) ([]Match, int) {
	var (
		out     []Match
		primary int
		bestPri int
	)
	for _, r := range d.opts.Rules {
		m, ok := scanRule(rt, r, skip)
		if !ok {
			continue
		}
		if len(out) == 0 || r.Priority > bestPri {
			primary, bestPri = len(out), r.Priority
		}
		out = append(out, m)
	}
	return out, primary
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

var std = MustNew(DefaultOptions())

// Default returns the package-level detector with the default rules
func Default() *Detector { return std }

// Detect evaluates the default rules over text
func Detect(text string) Result { return std.Detect(text) }

// DetectValue evaluates the default rules over loosely typed input
func DetectValue(v any) Result { return std.DetectValue(v) }
