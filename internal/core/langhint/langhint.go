// Package langhint provides coarse script and language hints for short texts
package langhint

import "unicode"

// hanWeight scales Han letters when picking the dominant script: one ideograph
// carries roughly a word, so "什么是NYLA Go?" reads as Chinese, not Latin
const hanWeight = 3

// Hint is the result of Detect
type Hint struct {
	Script  string  // dominant script name ("Han", "Latin", ...) or "" when no letters
	Lang    string  // best-effort BCP-47 code, "" when ambiguous
	Letters int     // letters seen
	Han     int     // Han letters seen
	HanFrac float64 // Han / Letters
}

// Detect returns the dominant script and, where the mapping is strong, a language
func Detect(s string) Hint {
	var (
		latin, cyrillic, greek, han, hira, kata, hangul int
		arabic, hebrew, thai                             int
		total                                            int
	)

	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r):
			hira++
		case unicode.Is(unicode.Katakana, r):
			kata++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Hebrew, r):
			hebrew++
		case unicode.Is(unicode.Thai, r):
			thai++
		case unicode.Is(unicode.Greek, r):
			greek++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	h := Hint{Letters: total, Han: han}
	if total == 0 {
		return h
	}
	h.HanFrac = float64(han) / float64(total)

	// order breaks ties in favor of the more specific script
	cands := []struct {
		name string
		cnt  int
	}{
		{"Hiragana", hira},
		{"Katakana", kata},
		{"Hangul", hangul},
		{"Han", han * hanWeight},
		{"Arabic", arabic},
		{"Hebrew", hebrew},
		{"Thai", thai},
		{"Greek", greek},
		{"Cyrillic", cyrillic},
		{"Latin", latin},
	}
	best := 0
	for _, c := range cands {
		if c.cnt > best {
			best = c.cnt
			h.Script = c.name
		}
	}

	switch {
	case hira > 0 || kata > 0:
		h.Lang = "ja"
	case hangul > 0:
		h.Lang = "ko"
	case h.Script == "Han":
		h.Lang = "zh"
	case h.Script == "Arabic":
		h.Lang = "ar"
	case h.Script == "Hebrew":
		h.Lang = "he"
	case h.Script == "Thai":
		h.Lang = "th"
	case h.Script == "Greek":
		h.Lang = "el"
	}
	return h
}

// IsChinese reports whether s reads as Chinese (Han dominant, no kana or hangul)
func IsChinese(s string) bool { return Detect(s).Lang == "zh" }
