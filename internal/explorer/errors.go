package explorer

import "errors"

// Decode failures. Explorer.Resolve reports all three as "no such node":
// a token held by a client can go stale whenever the graph is edited.
var (
	// ErrMalformedToken means the token's query parameters cannot be parsed
	// or a required parameter is missing.
	ErrMalformedToken = errors.New("malformed token")
	// ErrDanglingReference means a referenced id no longer resolves, or
	// resolves to an element of the wrong kind.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrUnsupportedVariant means the token has an unknown scheme and is not
	// the id of any real node either.
	ErrUnsupportedVariant = errors.New("unsupported node variant")
)

// isNotFound reports whether err is one of the decode failures above.
func isNotFound(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrUnsupportedVariant)
}
