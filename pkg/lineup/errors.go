package lineup

import "github.com/pkg/errors"

// ErrExceedsWidth is the only failure the engine produces: the requested
// content does not fit within the budget of the given Shape. Callers compare
// with errors.Is; the error may be wrapped with the position that failed.
var ErrExceedsWidth = errors.New("does not fit within width")

// exceeds wraps ErrExceedsWidth with context about what failed to fit.
func exceeds(format string, args ...any) error {
	return errors.Wrapf(ErrExceedsWidth, format, args...)
}
