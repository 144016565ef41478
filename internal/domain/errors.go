package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrAuthFailed indicates the access token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrQuotaExceeded indicates the daily API quota is exhausted
	ErrQuotaExceeded = errors.New("api quota exceeded")

	// ErrPlaylistNotFound indicates the requested playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrNoToken indicates no access token could be obtained
	ErrNoToken = errors.New("no access token available")

	// ErrTooManyPlaylists indicates the selection exceeds the configured maximum
	ErrTooManyPlaylists = errors.New("too many playlists selected")

	// ErrNotFound indicates a stored key does not exist
	ErrNotFound = errors.New("not found")

	// ErrStoreLocked indicates another process holds the local store
	ErrStoreLocked = errors.New("store is in use by another tubeshelf process")
)

// APIError is a non-2xx response from the video platform API
type APIError struct {
	Status  int
	Reason  string // first error reason reported upstream, e.g. "quotaExceeded"
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api: %d %s: %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api: %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match an APIError against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == http.StatusUnauthorized
	case ErrQuotaExceeded:
		return e.IsQuota()
	case ErrPlaylistNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsQuota reports whether the upstream error signals quota exhaustion.
// Detection is by reason or message content.
func (e *APIError) IsQuota() bool {
	if e.Status != http.StatusForbidden && e.Status != http.StatusTooManyRequests {
		return false
	}
	return containsFold(e.Reason, "quota") || containsFold(e.Message, "quota")
}

// IsTransient reports whether err is worth skipping rather than aborting on:
// network failures and 5xx responses.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return err != nil && !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrQuotaExceeded)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
