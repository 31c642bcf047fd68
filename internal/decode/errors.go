package decode

import (
	"errors"
	"fmt"
)

// Kind classifies why decoding failed.
type Kind string

const (
	KindHTMLResponse   Kind = "HTML_RESPONSE"
	KindNoDataField    Kind = "NO_DATA_FIELD"
	KindNoClosingBrace Kind = "NO_CLOSING_BRACE"
	KindParseFailure   Kind = "PARSE_FAILURE"
	KindRetryExhausted Kind = "RETRY_EXHAUSTED"
)

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrHTMLResponse   = &Error{Kind: KindHTMLResponse}
	ErrNoDataField    = &Error{Kind: KindNoDataField}
	ErrNoClosingBrace = &Error{Kind: KindNoClosingBrace}
	ErrParseFailure   = &Error{Kind: KindParseFailure}
	ErrRetryExhausted = &Error{Kind: KindRetryExhausted}
)

// Error is the typed failure surfaced once every strategy is exhausted.
type Error struct {
	Kind Kind
	// Attempts is the number of decode attempts made; set for RETRY_EXHAUSTED.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := "decode: " + string(e.Kind)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
