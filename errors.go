package semrel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// Sentinel errors returned by inference. Use errors.Is to match them.
var (
	// ErrInvalidStage indicates the requested stage is not configured.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidScope indicates the requested scope is not major, minor or patch.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrPrecedence indicates the inferred version would sort below an
	// existing tag.
	ErrPrecedence = errors.New("version precedence violation")
)

// StageError reports a requested stage that is not one of the allowed stages.
type StageError struct {
	Stage   string
	Allowed []string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q is not one of [%s] allowed for strategy %s",
		e.Stage, strings.Join(e.Allowed, ", "), strategyName)
}

func (e *StageError) Unwrap() error {
	return ErrInvalidStage
}

// PrecedenceError reports an inferred version lower than the nearest tag.
type PrecedenceError struct {
	Inferred semver.Version
	Nearest  semver.Version
}

func (e *PrecedenceError) Error() string {
	return fmt.Sprintf("inferred version (%s) cannot be lower than nearest (%s)", e.Inferred, e.Nearest)
}

func (e *PrecedenceError) Unwrap() error {
	return ErrPrecedence
}
