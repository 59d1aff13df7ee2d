package repetition

import "unicode"

// RuleName identifies a rule in results and metrics
type RuleName string

const (
	// Generic flags a 5..20 character unit repeated at least 4 times
	Generic RuleName = "generic"
	// CJK flags a 1..10 ideograph unit repeated at least 6 times
	CJK RuleName = "cjk"
)

// Rule is one repetition pattern class: a unit of MinUnit..MaxUnit runes, every rune
// accepted by Class, repeated back to back at least MinRepeats times in total
type Rule struct {
	Name       RuleName `yaml:"name" validate:"required"`
	MinUnit    int      `yaml:"min_unit" validate:"min=1"`
	MaxUnit    int      `yaml:"max_unit" validate:"gtefield=MinUnit"`
	MinRepeats int      `yaml:"min_repeats" validate:"min=2"`

	// TailSlack lets the final repeat omit up to this many trailing runes of the
	// unit, provided each omitted rune is whitespace or punctuation
	TailSlack int `yaml:"tail_slack" validate:"min=0,ltfield=MinUnit"`

	// Priority picks the primary match when several rules fire (higher wins)
	Priority int `yaml:"priority"`

	Class func(rune) bool `yaml:"-" validate:"required"`
}

// GenericRule matches any characters except line terminators, the way `.` does in
// the regex form (.{5,20})\1{3,}
func GenericRule() Rule {
	return Rule{
		Name:       Generic,
		MinUnit:    5,
		MaxUnit:    20,
		MinRepeats: 4,
		TailSlack:  1,
		Class:      NotLineTerminator,
	}
}

// CJKRule matches units drawn from the CJK Unified Ideographs block,
// ([\x{4e00}-\x{9fff}]{1,10})\1{5,}
func CJKRule() Rule {
	return Rule{
		Name:       CJK,
		MinUnit:    1,
		MaxUnit:    10,
		MinRepeats: 6,
		Priority:   1,
		Class:      IsCJKIdeograph,
	}
}

// DefaultRules returns the generic and CJK rules, in that order
func DefaultRules() []Rule { return []Rule{GenericRule(), CJKRule()} }

// IsCJKIdeograph reports whether r is in U+4E00..U+9FFF
func IsCJKIdeograph(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }

// NotLineTerminator reports whether r is anything but \n, \r, U+2028, U+2029
func NotLineTerminator(r rune) bool {
	return r != '\n' && r != '\r' && r != '\u2028' && r != '\u2029'
}

// isSeparator is what tail slack may drop
func isSeparator(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) }

// window is the longest run a rule needs to see before it can fire
func (r Rule) window() int { return r.MaxUnit * r.MinRepeats }
