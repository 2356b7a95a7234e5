package preset

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPreset    = errors.New("invalid preset")
	ErrDanglingWildcard = errors.New("wildcard section without sibling sections")
	ErrUnknownParam     = errors.New("unknown parameter")
	ErrInvalidParam     = errors.New("invalid parameter")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrInvalidFormat    = errors.New("invalid format spec")
	ErrMissingField     = errors.New("missing template field")
	ErrNoPresetFound    = errors.New("no preset found")
)

// NoPresetFoundError is returned when a name or pattern matches no preset.
type NoPresetFoundError struct {
	Pattern string
}

func (e *NoPresetFoundError) Error() string {
	return fmt.Sprintf("no preset setup file found for '%s'", e.Pattern)
}

// Is makes errors.Is(err, ErrNoPresetFound) hold.
func (e *NoPresetFoundError) Is(target error) bool {
	return target == ErrNoPresetFound
}
