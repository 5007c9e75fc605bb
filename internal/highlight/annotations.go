package highlight

import (
	"regexp"
	"strconv"
	"strings"
)

// annotationRe matches a comment line carrying a focus annotation:
//
//	# !focus
//	# !focus(1:5)
//	// !focus(2)
//
// Ranges are 1-based and relative to the first line after the comment.
var annotationRe = regexp.MustCompile(`^\s*(?:#|//)\s*!focus(?:\((\d+)(?::(\d+))?\))?\s*$`)

type lineRange struct {
	from, to int // inclusive, 0-based, in stripped line numbers
}

// StripAnnotations removes focus annotation comments from src and reports, for
// every remaining line, whether it is covered by an annotation.
func StripAnnotations(src string) (lines []string, focus []bool) {
	raw := strings.Split(src, "\n")
	lines = make([]string, 0, len(raw))
	var ranges []lineRange

	for _, line := range raw {
		m := annotationRe.FindStringSubmatch(line)
		if m == nil {
			lines = append(lines, line)
			continue
		}

		from, to := 1, 1
		if m[1] != "" {
			from, _ = strconv.Atoi(m[1])
			to = from
		}
		if m[2] != "" {
			to, _ = strconv.Atoi(m[2])
		}
		if from < 1 {
			from = 1
		}
		if to < from {
			to = from
		}

		next := len(lines)
		ranges = append(ranges, lineRange{from: next + from - 1, to: next + to - 1})
	}

	focus = make([]bool, len(lines))
	for _, r := range ranges {
		for i := r.from; i <= r.to && i < len(lines); i++ {
			focus[i] = true
		}
	}
	return lines, focus
}
