package fallback

import (
	"regexp"
	"unicode/utf8"
)

const (
	markerLead    = 50
	markerWindow  = 5000
	minBlockRunes = 50
)

// scriptMarker matches a line opening with a narration or screenplay cue.
var scriptMarker = regexp.MustCompile(`(?im)^(?:NARRATOR|VOICE OVER|VO|INT\.|EXT\.|SCENE)`)

var paragraphBreak = regexp.MustCompile(`(?:\r?\n){2,}`)

// ExtractBasicScriptContent returns a best-effort block of narrative text.
// It first looks for a line starting with a script cue (NARRATOR, VO, VOICE
// OVER, INT., EXT., SCENE) and returns up to 5000 bytes starting 50 bytes
// before it. Otherwise it returns the longest paragraph if that paragraph is
// longer than 50 characters.
func ExtractBasicScriptContent(content string) (string, bool) {
	if loc := scriptMarker.FindStringIndex(content); loc != nil {
		start := runeStart(content, max(loc[0]-markerLead, 0))
		end := min(start+markerWindow, len(content))
		for end < len(content) && !utf8.RuneStart(content[end]) {
			end--
		}
		return content[start:end], true
	}

	longest := ""
	for _, seg := range paragraphBreak.Split(content, -1) {
		if utf8.RuneCountInString(seg) > utf8.RuneCountInString(longest) {
			longest = seg
		}
	}
	if utf8.RuneCountInString(longest) > minBlockRunes {
		return longest, true
	}
	return "", false
}

// runeStart moves i back to the first byte of the rune containing it.
func runeStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
