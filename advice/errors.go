package advice

import "github.com/pkg/errors"

var (
	ErrNotFound      = errors.New("advice not found")
	ErrNilWeaver     = errors.New("nil weaver")
	ErrUnknownPhase  = errors.New("unknown phase")
	ErrPhaseMismatch = errors.New("weaver does not match phase")
)
