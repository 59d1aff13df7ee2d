package normalize

// ZoneType identifies markup zones where repetition is expected
type ZoneType string

const (
	// ZoneCodeFence is a fenced code block
	ZoneCodeFence ZoneType = "code_fence"
	// ZoneCodeInline is inline code
	ZoneCodeInline ZoneType = "code_inline"
)

// ZoneSpan is a byte-range [Start,End) over the scanned string
type ZoneSpan struct {
	Type       ZoneType
	Start, End int
}

// DetectZones returns spans for fenced code between ``` ... ``` and inline code
// between ` ... ` (not inside fences). Backticks themselves are excluded.
// An unclosed fence runs to the end of the text: generated output is often cut mid-block
func DetectZones(s string) []ZoneSpan {
	if s == "" {
		return nil
	}
	var out []ZoneSpan

	for i := 0; i+2 < len(s); {
		if !isFence(s, i) {
			i++
			continue
		}
		start := i + 3
		end := indexFence(s, start)
		if end < 0 {
			if start < len(s) {
				out = append(out, ZoneSpan{Type: ZoneCodeFence, Start: start, End: len(s)})
			}
			break
		}
		if start < end {
			out = append(out, ZoneSpan{Type: ZoneCodeFence, Start: start, End: end})
		}
		i = end + 3
	}

	fences := len(out)
	inFence := func(pos int) bool {
		for _, z := range out[:fences] {
			if pos >= z.Start-3 && pos < z.End+3 {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '`' || inFence(i) {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] != '`' && s[j] != '\n' {
			j++
		}
		if j < len(s) && s[j] == '`' && !inFence(j) {
			if i+1 < j {
				out = append(out, ZoneSpan{Type: ZoneCodeInline, Start: i + 1, End: j})
			}
			i = j
		}
	}

	return out
}

// Covered reports whether [start,end) lies entirely inside one zone
func Covered(zs []ZoneSpan, start, end int) bool {
	for _, z := range zs {
		if start >= z.Start && end <= z.End {
			return true
		}
	}
	return false
}

func isFence(s string, i int) bool {
	return i+2 < len(s) && s[i] == '`' && s[i+1] == '`' && s[i+2] == '`'
}

func indexFence(s string, from int) int {
	for i := from; i+2 < len(s); i++ {
		if isFence(s, i) {
			return i
		}
	}
	return -1
}
