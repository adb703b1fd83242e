package screenshot

import "errors"

// Capture failure kinds. Callers map each to distinct user-facing text,
// so they are sentinels rather than one opaque error.
var (
	// ErrNoUpdateInfo means the upstream has no queryable map-update
	// timestamp for the token; capture cannot proceed.
	ErrNoUpdateInfo = errors.New("no map update information for token")

	// ErrUnavailable means the upstream explicitly reports the token has
	// no renderable map.
	ErrUnavailable = errors.New("bubble map not available for token")

	// ErrRenderFailed wraps any browser-automation failure.
	ErrRenderFailed = errors.New("map screenshot render failed")
)
