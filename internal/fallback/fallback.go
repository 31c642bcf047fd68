// Package fallback recovers script fields from text that no JSON strategy
// could decode. Results are lossy; use them only after strict decoding has
// been retried and exhausted.
package fallback

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultTitle is used when no scriptTitle field can be found.
const DefaultTitle = "Generated Script"

// minScriptRunes is the length a recovered script must exceed; shorter
// matches are treated as noise.
const minScriptRunes = 20

// ScriptData is the minimal script shape recoverable without valid JSON.
type ScriptData struct {
	ScriptTitle    string `json:"scriptTitle"`
	Script         string `json:"script"`
	ScriptDuration int    `json:"scriptDuration"`
}

var (
	titleField    = regexp.MustCompile(`"scriptTitle"\s*:\s*"([^"]+)"`)
	scriptField   = regexp.MustCompile(`"script"\s*:\s*"((?:\\"|[^"])+)"`)
	durationField = regexp.MustCompile(`"scriptDuration"\s*:\s*(\d+)`)
)

// ExtractFallbackData scans raw content for the scriptTitle, script and
// scriptDuration fields independently. It reports false unless the script
// body is longer than 20 characters.
func ExtractFallbackData(content string) (ScriptData, bool) {
	m := scriptField.FindStringSubmatch(content)
	if m == nil {
		return ScriptData{}, false
	}
	script := unescapeScript(m[1])
	if script == "" || utf8.RuneCountInString(script) <= minScriptRunes {
		return ScriptData{}, false
	}

	title := DefaultTitle
	if tm := titleField.FindStringSubmatch(content); tm != nil {
		title = strings.ReplaceAll(tm[1], `\"`, `"`)
	}

	duration := 0
	if dm := durationField.FindStringSubmatch(content); dm != nil {
		if n, err := strconv.Atoi(dm[1]); err == nil {
			duration = n
		}
	}
	return ScriptData{ScriptTitle: title, Script: script, ScriptDuration: duration}, true
}

// unescapeScript undoes the three escapes producers emit, in order: \" then
// \n then \\. Each pass runs over the output of the previous one.
func unescapeScript(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.ReplaceAll(s, `\\`, `\`)
}
