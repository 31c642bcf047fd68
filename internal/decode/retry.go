package decode

import (
	"context"
	"errors"

	"github.com/hyperifyio/scriptdecode/internal/retry"
)

// ParseJSONWithRetry sanitizes and extracts content, repeating the identical
// input up to maxRetries more times with exponential backoff (500ms, 1s,
// 2s, ...). Retrying only helps when the text was read while the stream was
// still arriving. Exhaustion yields a RETRY_EXHAUSTED *Error wrapping the
// last extraction error; a cancelled ctx yields ctx.Err().
func ParseJSONWithRetry[T any](ctx context.Context, content string, maxRetries int) (Payload[T], error) {
	return ParseWithPolicy[T](ctx, nil, content, retry.Policy{MaxRetries: maxRetries})
}

// ParseWithPolicy is ParseJSONWithRetry with an explicit Extractor and policy.
func ParseWithPolicy[T any](ctx context.Context, x *Extractor, content string, p retry.Policy) (Payload[T], error) {
	r := JSONRepair
	if x != nil && x.Repairer != nil {
		r = x.Repairer
	}
	if p.Name == "" {
		p.Name = "decode"
	}
	var out Payload[T]
	err := p.Do(ctx, func(context.Context, int) error {
		cleaned := sanitizeWith(r, content)
		pl, err := ExtractWith[T](x, cleaned)
		if err != nil {
			return err
		}
		out = pl
		return nil
	})
	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		return Payload[T]{}, &Error{Kind: KindRetryExhausted, Attempts: ex.Attempts, Err: ex.Err}
	}
	if err != nil {
		return Payload[T]{}, err
	}
	return out, nil
}
