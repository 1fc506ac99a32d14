package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnreachable covers connection-level failures talking to the scraper.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")

	// ErrTransform means the upstream payload could not be normalized.
	ErrTransform = errors.New("transform failed")

	// ErrStoreUnavailable is returned by repositories when the backing store
	// cannot be reached. The history service degrades on it instead of failing.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// UpstreamStatusError is a non-success HTTP answer from the scraper.
type UpstreamStatusError struct {
	Status int
	Body   string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}
