package repetition

import "unicode/utf8"

// runeText is a decoded slice of text; offs[i] is the absolute byte offset of
// rs[i] and offs[len(rs)] the end of the slice
type runeText struct {
	src  string
	base int
	rs   []rune
	offs []int
}

func decode(s string, base int) runeText {
	n := utf8.RuneCountInString(s)
	t := runeText{src: s, base: base, rs: make([]rune, 0, n), offs: make([]int, 0, n+1)}
	for i, r := range s {
		t.rs = append(t.rs, r)
		t.offs = append(t.offs, base+i)
	}
	t.offs = append(t.offs, base+len(s))
	return t
}

// slice returns the source text between absolute byte offsets
func (t runeText) slice(start, end int) string { return t.src[start-t.base : end-t.base] }

// scanRule finds the leftmost start position where rule r fires and, at that
// position, the shortest qualifying unit. skip, when set, rejects candidate spans
// (absolute byte offsets); the search then continues to the right.
//
// Go's regexp has no backreferences, so the pattern (unit)\1{k,} is evaluated
// directly: for a unit length L, eq[j] = rs[j]==rs[j+L] and run[i] counts the
// consecutive true eq values from i. A unit of length L at i repeats k times in
// total exactly when run[i] >= (k-1)*L.
func scanRule(t runeText, r Rule, skip func(start, end int) bool) (Match, bool) {
	n := len(t.rs)
	if n < r.MinUnit*r.MinRepeats-r.TailSlack {
		return Match{}, false
	}

	// nextBad[i] is the first index >= i whose rune is outside the rule's class
	nextBad := make([]int, n+1)
	nextBad[n] = n
	for i := n - 1; i >= 0; i-- {
		if r.Class(t.rs[i]) {
			nextBad[i] = nextBad[i+1]
		} else {
			nextBad[i] = i
		}
	}

	run := make([]int, n+1)
	best := Match{}
	bestPos := n
	found := false

	for L := r.MinUnit; L <= r.MaxUnit && L < n; L++ {
		// run[i] for i in [0, n-L)
		run[n-L] = 0
		for j := n - L - 1; j >= 0; j-- {
			if t.rs[j] == t.rs[j+L] {
				run[j] = run[j+1] + 1
			} else {
				run[j] = 0
			}
		}

		need := (r.MinRepeats - 1) * L
		for i := 0; i < bestPos && i+L <= n; i++ {
			if nextBad[i] < i+L {
				// unit would contain a rune outside the class; jump past it
				i = nextBad[i]
				continue
			}
			slack := tailSlack(t.rs[i:i+L], r.TailSlack)
			if run[i] < need-slack {
				continue
			}

			extra := run[i]
			count := 1 + extra/L
			rem := extra % L
			end := i + L + extra - rem
			if slack > 0 && rem >= L-slack {
				count++
				end = i + L + extra
			}
			if count < r.MinRepeats {
				continue
			}

			startB, endB := t.offs[i], t.offs[end]
			if skip != nil && skip(startB, endB) {
				continue
			}
			best = Match{
				Rule:  r.Name,
				Unit:  t.slice(startB, t.offs[i+L]),
				Count: count,
				Start: startB,
				End:   endB,
			}
			bestPos = i
			found = true
			break
		}
	}
	return best, found
}

// tailSlack is how many trailing runes of unit the final repeat may omit:
// the trailing separators, capped at limit
func tailSlack(unit []rune, limit int) int {
	w := 0
	for k := len(unit) - 1; k >= 0 && w < limit; k-- {
		if !isSeparator(unit[k]) {
			break
		}
		w++
	}
	return w
}

// tailStart returns the byte offset where the last n runes of s begin
func tailStart(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}
