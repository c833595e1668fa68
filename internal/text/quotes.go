package text

import "unicode/utf8"

// Quote is one quoted region: Start/End cover the marks, Inner is the
// speech between them and InnerStart its offset.
type Quote struct {
	Start      int
	End        int
	Inner      string
	InnerStart int
}

// Quotes locates quoted speech. Curly marks pair explicitly; straight
// double quotes toggle open/closed. An unterminated quote runs to the end
// of the string rather than being dropped.
func Quotes(s string) []Quote {
	var out []Quote
	open := -1
	openSize := 0
	emit := func(end, markLen int) {
		out = append(out, Quote{
			Start:      open,
			End:        end + markLen,
			Inner:      s[open+openSize : end],
			InnerStart: open + openSize,
		})
		open = -1
	}
	for i, r := range s {
		switch r {
		case '“':
			if open < 0 {
				open = i
				openSize = utf8.RuneLen(r)
			}
		case '”':
			if open >= 0 {
				emit(i, utf8.RuneLen(r))
			}
		case '"':
			if open < 0 {
				open = i
				openSize = 1
			} else {
				emit(i, 1)
			}
		}
	}
	if open >= 0 && open+openSize < len(s) {
		out = append(out, Quote{Start: open, End: len(s), Inner: s[open+openSize:], InnerStart: open + openSize})
	}
	return out
}

// QuotedBytes sums the byte length of all quoted regions, marks included.
func QuotedBytes(s string) int {
	total := 0
	for _, q := range Quotes(s) {
		total += q.End - q.Start
	}
	return total
}
