package scanner

import (
	"strings"
)

// SpaceIssues reports whether p contains a space and which of its
// "/"-separated segments contain both a space and a Han ideograph.
func SpaceIssues(p string) (hasSpaces bool, suspicious []string) {
	if !strings.Contains(p, " ") {
		return false, nil
	}
	for _, part := range strings.Split(p, "/") {
		if strings.Contains(part, " ") && strings.IndexFunc(part, isHan) >= 0 {
			suspicious = append(suspicious, part)
		}
	}
	return true, suspicious
}

// isHan covers the CJK Unified Ideographs block.
func isHan(r rune) bool {
	return r >= '\u4e00' && r <= '\u9fff'
}
