package enrich

import "strings"

// ShortenText implements spec.md §4.7's shorten_text(text, min_line_len,
// max_total_len): split on newline, form "- "+trim(line) per line, accept
// only lines of length >= minLineLen, greedily, while the running total stays
// <= maxTotalLen. The loop does not break on overflow — an oversized line is
// skipped but scanning continues, since a later short line may still fit
// (spec.md invariant 5 / scenario S3). The length measured, both for the
// overflow check and the running total, is the "- "-prefixed formatted
// line's length, matching original_source/skimmer/src/main.rs's
// shorten_text, which calls line.len() after prefixing.
func ShortenText(text string, minLineLen, maxTotalLen int) string {
	var kept []string
	totalLen := 0
	for _, line := range strings.Split(text, "\n") {
		formatted := "- " + strings.TrimSpace(line)
		length := len(formatted)
		if totalLen+length > maxTotalLen {
			continue
		}
		if length >= minLineLen {
			kept = append(kept, formatted)
			totalLen += length
		}
	}
	return strings.Join(kept, "\n")
}
