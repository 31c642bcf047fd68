// Package decode extracts `{ "data": ... }` payloads from unreliable LLM
// completion text using an ordered cascade of repair and parse strategies.
package decode

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Payload is a decoded `{ "data": ... }` envelope. Error and ErrorType are
// set instead of Data when the input was an HTML error page.
type Payload[T any] struct {
	Data      T      `json:"data"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// IsHTMLError reports whether the payload is the synthetic HTML error object.
func (p Payload[T]) IsHTMLError() bool { return p.ErrorType == string(KindHTMLResponse) }

// Candidate is the substring that satisfied the cascade.
type Candidate struct {
	// Strategy names the stage and method, e.g. "fence/repair".
	Strategy string
	// JSON is the text that parsed; repaired text when a repair stage won.
	JSON   string
	Object map[string]any
}

// Extractor runs the decoding cascade. The zero value uses JSONRepair.
type Extractor struct {
	Repairer Repairer
}

var (
	objectBoundary = regexp.MustCompile(`\}\s*\{`)
	fencedObject   = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")
)

var dataAnchors = []string{`{"data":`, `{ "data":`}

// stage yields the candidate substrings of one cascade step, cheapest first.
type stage struct {
	name       string
	candidates func(text string) []string
}

var stages = []stage{
	{name: "direct", candidates: func(text string) []string { return []string{text} }},
	{name: "split", candidates: splitConcatenated},
	{name: "fence", candidates: fencedCandidate},
	{name: "brace", candidates: func(text string) []string {
		if m := matchDataBraces(text); m.closed {
			return []string{m.span}
		}
		return nil
	}},
}

// Extract applies the stages in order and returns the first candidate that
// parses to an object with a truthy "data" field. Every candidate is tried
// repaired first, then as-is. When nothing qualifies the error Kind is
// NO_DATA_FIELD (no anchor), NO_CLOSING_BRACE (anchor never balanced) or
// PARSE_FAILURE.
func (x *Extractor) Extract(text string) (Candidate, error) {
	r := JSONRepair
	if x != nil && x.Repairer != nil {
		r = x.Repairer
	}
	var lastErr error
	for _, st := range stages {
		for _, cand := range st.candidates(text) {
			c, err := tryCandidate(r, st.name, cand)
			if err == nil {
				log.Debug().Str("strategy", c.Strategy).Int("len", len(c.JSON)).Msg("extracted payload")
				return c, nil
			}
			lastErr = err
		}
	}

	m := matchDataBraces(text)
	switch {
	case !m.anchored:
		return Candidate{}, &Error{Kind: KindNoDataField, Err: errors.New(`no {"data": anchor in text`)}
	case !m.closed:
		return Candidate{}, &Error{Kind: KindNoClosingBrace, Err: errors.New("data object never closes")}
	default:
		return Candidate{}, &Error{Kind: KindParseFailure, Err: lastErr}
	}
}

// tryCandidate is the "attempt, else continue" combinator: repair then
// parse, falling back to a plain parse.
func tryCandidate(r Repairer, stageName, text string) (Candidate, error) {
	repaired, err := safeRepair(r, text)
	if err == nil {
		obj, perr := parseObject(repaired)
		if perr == nil {
			return Candidate{Strategy: stageName + "/repair", JSON: repaired, Object: obj}, nil
		}
		err = perr
	}
	log.Debug().Str("strategy", stageName+"/repair").Err(err).Msg("strategy failed")

	obj, perr := parseObject(text)
	if perr != nil {
		log.Debug().Str("strategy", stageName+"/parse").Err(perr).Msg("strategy failed")
		return Candidate{}, perr
	}
	return Candidate{Strategy: stageName + "/parse", JSON: text, Object: obj}, nil
}

var errNoData = errors.New(`object has no truthy "data" field`)

func parseObject(text string) (map[string]any, error) {
	var v any
	if err := json.UnmarshalFromString(text, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level %T is not an object", v)
	}
	if !truthy(obj["data"]) && !isHTMLErrorObject(obj) {
		return nil, errNoData
	}
	return obj, nil
}

func isHTMLErrorObject(obj map[string]any) bool {
	t, _ := obj["errorType"].(string)
	_, hasErr := obj["error"].(string)
	return hasErr && t == string(KindHTMLResponse)
}

// truthy follows the loose truthiness the producers assume: null, false, 0
// and "" do not count as data.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// splitConcatenated cuts back-to-back objects ("}{", optionally separated
// by whitespace) into segments. Text without a boundary yields nothing.
func splitConcatenated(text string) []string {
	locs := objectBoundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	segs := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		segs = append(segs, text[start:loc[0]+1])
		start = loc[1] - 1
	}
	return append(segs, text[start:])
}

func fencedCandidate(text string) []string {
	m := fencedObject.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return []string{m[1]}
}

type braceMatch struct {
	span     string
	anchored bool
	closed   bool
}

// matchDataBraces finds the first data anchor and walks forward counting
// braces until the opening brace is balanced. Braces inside string literals
// are counted too.
func matchDataBraces(text string) braceMatch {
	start := -1
	for _, a := range dataAnchors {
		if i := strings.Index(text, a); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		return braceMatch{}
	}
	depth := 1
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return braceMatch{span: text[start : i+1], anchored: true, closed: true}
			}
		}
	}
	return braceMatch{anchored: true}
}

// ExtractJSONFromText runs the cascade with the default repairer and decodes
// the winning candidate into Payload[T].
func ExtractJSONFromText[T any](text string) (Payload[T], error) {
	return ExtractWith[T](nil, text)
}

// ExtractWith is ExtractJSONFromText with an explicit Extractor.
func ExtractWith[T any](x *Extractor, text string) (Payload[T], error) {
	c, err := x.Extract(text)
	if err != nil {
		return Payload[T]{}, err
	}
	return As[T](c)
}

// As decodes a candidate into Payload[T].
func As[T any](c Candidate) (Payload[T], error) {
	var p Payload[T]
	if err := json.UnmarshalFromString(c.JSON, &p); err != nil {
		return Payload[T]{}, &Error{Kind: KindParseFailure, Err: fmt.Errorf("decode data: %w", err)}
	}
	return p, nil
}
