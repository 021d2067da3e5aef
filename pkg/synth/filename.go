package synth

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"voxlingo/pkg/voice"
)

const maxTextSegment = 30

// FileName derives a storage key from the text and voice:
// <text>_<voice>_<unix millis>.mp3, where both segments contain only
// lowercase ASCII alphanumerics and underscores. The timestamp component
// keeps names collision-resistant across calls.
func FileName(text, voiceID string) string {
	voiceName := voiceID
	if v, ok := voice.ByID(voiceID); ok {
		voiceName = v.Name
	}

	textSeg := sanitize(text)
	if len(textSeg) > maxTextSegment {
		textSeg = textSeg[:maxTextSegment]
		textSeg = strings.Trim(textSeg, "_")
	}
	if textSeg == "" {
		textSeg = "audio"
	}

	return fmt.Sprintf("%s_%s_%d.mp3", textSeg, sanitize(voiceName), time.Now().UnixMilli())
}

// sanitize decomposes accented characters, drops combining marks and any
// remaining non-alphanumerics, collapses whitespace runs to a single
// underscore and lowercases the result.
func sanitize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark from the decomposition, drop it
		case unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		}
		// anything else (punctuation, non-ASCII letters) is stripped
	}

	return strings.Trim(b.String(), "_")
}
