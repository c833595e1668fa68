package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Analysis itself is total: analyzers return zero-value artifacts for any
// input and never fail. Errors exist only at the scheduling boundary,
// where a pass can be superseded by a newer edit or the engine can be
// shut down underneath it.

var (
	// ErrPassSuperseded marks a pass whose result was discarded because a
	// newer edit arrived while it was in flight.
	ErrPassSuperseded = errors.New("pass superseded by newer edit")

	// ErrEngineClosed is returned by every operation after Close.
	ErrEngineClosed = errors.New("engine closed")

	// ErrUnknownChapter is returned when a read references a chapter the
	// engine has never seen.
	ErrUnknownChapter = errors.New("unknown chapter")
)

// PassError wraps a failure or discard of one analysis pass with enough
// context to log and classify it.
type PassError struct {
	ChapterID string
	Tier      manuscript.Tier
	PassID    string
	Cause     error
	Timestamp time.Time
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s pass %s on %s: %v", e.Tier, e.PassID, e.ChapterID, e.Cause)
}

func (e *PassError) Unwrap() error {
	return e.Cause
}

// NewPassError creates a PassError with the current timestamp.
func NewPassError(chapterID string, tier manuscript.Tier, passID string, cause error) *PassError {
	return &PassError{
		ChapterID: chapterID,
		Tier:      tier,
		PassID:    passID,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// IsSuperseded reports whether an error means the pass was discarded in
// favor of a newer one. Callers treat this as routine, not a failure.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrPassSuperseded)
}

// IsClosed reports whether an error means the engine was shut down.
func IsClosed(err error) bool {
	return errors.Is(err, ErrEngineClosed)
}
