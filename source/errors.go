package source

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is matched by every evaluation failure. It means the
// source's preconditions were not met and the next source should be tried.
var ErrSourceUnavailable = errors.New("source unavailable")

// Failure reports why a single descriptor could not produce a value.
type Failure struct {
	Descriptor Descriptor
	Err        error
	// Fatal failures end the fallback walk. Spawning an ephemeral node is
	// the only source that produces them.
	Fatal bool
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Descriptor, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func unavailable(d Descriptor, format string, args ...any) *Failure {
	return &Failure{Descriptor: d, Err: fmt.Errorf(format, args...)}
}
