package textutil

import (
	"regexp"
	"strings"
)

var (
	bracketTagPattern = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
	// Only bracketed years are treated as release markers; a bare number may
	// be part of the title itself ("Metro 2033", "1984").
	yearPattern       = regexp.MustCompile(`[(\[]\s*(1[89]\d{2}|20\d{2})\s*[)\]]`)
	bitratePattern    = regexp.MustCompile(`(?i)\b\d{2,3}\s?(?:k|kbps)\b`)
	multiSpacePattern = regexp.MustCompile(`\s{2,}`)
	separatorPattern  = regexp.MustCompile(`[._]+`)
)

// noiseWords are release markers that carry no identifying information. They
// are stripped as whole words, case-insensitively, before lookup.
var noiseWords = []string{
	"audiobook", "audiobooks", "unabridged", "abridged", "complete",
	"retail", "chapterized", "m4b", "m4a", "mp3", "flac", "ogg",
	"remastered", "graphicaudio",
}

var noiseWordPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(noiseWords, "|") + `)\b`)

// CleanTitle strips release noise out of a folder or file name: bracketed
// site tags, embedded years, bitrate and format markers, and dot/underscore
// separators. The result keeps its original word order and casing.
func CleanTitle(raw string) string {
	cleaned := bracketTagPattern.ReplaceAllString(raw, " ")
	cleaned = separatorPattern.ReplaceAllString(cleaned, " ")
	cleaned = bitratePattern.ReplaceAllString(cleaned, " ")
	cleaned = noiseWordPattern.ReplaceAllString(cleaned, " ")
	cleaned = yearPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.NewReplacer("(", " ", ")", " ").Replace(cleaned)
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " -–")
	if cleaned == "" {
		return strings.TrimSpace(raw)
	}
	return cleaned
}

// ExtractYear returns the first bracketed publication year embedded in raw,
// or 0 when none is present.
func ExtractYear(raw string) int {
	match := yearPattern.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	year := 0
	for _, r := range match[1] {
		year = year*10 + int(r-'0')
	}
	return year
}
