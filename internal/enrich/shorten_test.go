package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortenText_S3(t *testing.T) {
	text := "aaa\n" + strings.Repeat("b", 100) + "\n" + strings.Repeat("c", 50)
	got := ShortenText(text, 80, 150)
	want := "- " + strings.Repeat("b", 100)
	assert.Equal(t, want, got)
}

func TestShortenText_SkipsOverflowButContinuesScanning(t *testing.T) {
	// A line long enough to exceed max_total_len alone must be skipped, but
	// scanning must continue so a later short-enough line can still fit.
	text := strings.Repeat("x", 200) + "\n" + strings.Repeat("y", 90)
	got := ShortenText(text, 80, 150)
	assert.Equal(t, "- "+strings.Repeat("y", 90), got)
}

func TestShortenText_EmptyWhenNothingQualifies(t *testing.T) {
	got := ShortenText("short\nlines\nonly", 80, 150)
	assert.Equal(t, "", got)
}

func TestShortenText_JoinsMultipleKeptLinesWithNewline(t *testing.T) {
	a := strings.Repeat("a", 80)
	b := strings.Repeat("b", 80)
	got := ShortenText(a+"\n"+b, 80, 200)
	assert.Equal(t, "- "+a+"\n- "+b, got)
}
