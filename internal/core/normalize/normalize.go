// Package normalize provides a deterministic pre-scan normalizer for generated text.
// Pipeline order
// 1 Sanitize control characters and drop invalid UTF-8 bytes
// 2 Unicode NFKC normalization
// 3 Remove format characters (zero-width space/joiners, BOM) that can hide a loop
// 4 Width fold fullwidth/halfwidth forms
// 5 Collapse horizontal whitespace to single spaces, keep line breaks, trim
//
// Case is preserved: "Hello hello" is not a repetition loop
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe; transformer chains are pooled
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the normalized form of s following the pipeline described above
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// the chain only fails on malformed input, which Sanitize already removed
		ns = s
	}

	return collapseSpaces(ns)
}

// collapseSpaces turns each whitespace run into one ASCII space, or one '\n' when the
// run contains a line break. Leading/trailing whitespace is trimmed
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS, sawNL := false, false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			if r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029' {
				sawNL = true
			}
			continue
		}
		if inWS && b.Len() > 0 {
			if sawNL {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		inWS, sawNL = false, false
		b.WriteRune(r)
	}
	return b.String()
}
