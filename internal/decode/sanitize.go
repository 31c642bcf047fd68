package decode

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scriptdecode/internal/htmlpage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTMLErrorMessage is the "error" value of the object substituted for an HTML page.
const HTMLErrorMessage = "Received HTML error page from server"

// htmlErrorJSON is what SanitizeChunkText returns for an HTML page. It always
// parses, so downstream strategies short-circuit on it.
const htmlErrorJSON = `{"error":"` + HTMLErrorMessage + `","errorType":"` + string(KindHTMLResponse) + `"}`

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	blankRuns    = regexp.MustCompile(`\n\s*\n`)
)

// IsHTMLResponse reports whether text looks like an HTML document rather
// than a completion: it starts with a doctype or <html> tag, or contains a
// closing </html> tag.
func IsHTMLResponse(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "<!doctype") || strings.HasPrefix(t, "<html") || strings.Contains(t, "</html>")
}

// SanitizeChunkText normalizes one raw chunk before parsing. HTML pages are
// replaced by a synthetic error object. JSON-shaped text that the repairer
// can make valid is returned repaired. Anything else gets stray backslashes
// escaped, C0 control characters (other than tab, LF and CR) removed, and
// blank-line runs collapsed. It never fails; on an internal panic the input
// is returned unchanged.
func SanitizeChunkText(text string) string {
	return sanitizeWith(JSONRepair, text)
}

func sanitizeWith(r Repairer, text string) (out string) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Int("len", len(text)).Msg("sanitize failed; using raw text")
			out = text
		}
	}()

	if IsHTMLResponse(text) {
		page := htmlpage.Summarize(text)
		log.Warn().Str("title", page.Title).Str("text", page.Text).Msg("received HTML page instead of JSON")
		return htmlErrorJSON
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		repaired, err := safeRepair(r, trimmed)
		if err == nil && json.Valid([]byte(repaired)) {
			return repaired
		}
		if err != nil {
			log.Debug().Err(err).Msg("sanitize: repair failed; applying generic cleanup")
		}
	}

	s := escapeStrayBackslashes(text)
	s = controlChars.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n")
	return s
}

// escapeStrayBackslashes doubles every backslash that does not start a valid
// JSON escape. Each backslash is judged by the single character after it.
func escapeStrayBackslashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && (i+1 >= len(s) || !isEscapeChar(s[i+1])) {
			b.WriteString(`\\`)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isEscapeChar(c byte) bool {
	switch c {
	case '\\', 'b', 'f', 'n', 'r', 't', 'u', '"':
		return true
	}
	return false
}
