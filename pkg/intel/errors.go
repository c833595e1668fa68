package intel

import "github.com/draftmind/manuscript/internal/core"

// Sentinel errors surfaced by the engine. Classify with errors.Is or the
// helpers below; ErrPassSuperseded in particular is routine during fast
// editing, not a failure.
var (
	ErrPassSuperseded = core.ErrPassSuperseded
	ErrEngineClosed   = core.ErrEngineClosed
	ErrUnknownChapter = core.ErrUnknownChapter
)

// IsSuperseded reports whether an error means the pass was discarded in
// favor of a newer one.
func IsSuperseded(err error) bool {
	return core.IsSuperseded(err)
}

// IsClosed reports whether an error means the engine was shut down.
func IsClosed(err error) bool {
	return core.IsClosed(err)
}
