package ytauto

import (
	"ytauto/auth"
	"ytauto/calendar"
	ythttp "ytauto/http"
	"ytauto/internal/retry"
	"ytauto/internal/storage"
	"ytauto/music"
	"ytauto/playlist"
	"ytauto/shotcut"
	"ytauto/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, music.ErrEmptyPool) {
//		fmt.Println("No songs in the music folders")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var projErr *shotcut.ProjectError
//	if errors.As(err, &projErr) {
//		fmt.Printf("%s failed for %s: %v\n", projErr.Op, projErr.Path, projErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// YouTubeError wraps a failed YouTube API call.
	YouTubeError = youtube.APIError
	// CalendarError wraps a failed Calendar API call.
	CalendarError = calendar.APIError
	// CredentialError wraps a credential file that could not be used.
	CredentialError = auth.CredentialError
	// ProjectError wraps a failed project file operation.
	ProjectError = shotcut.ProjectError
	// RegionError ties a placement problem to its region.
	RegionError = music.RegionError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during file storage operations.
	StorageError = storage.StorageError
	// CircuitOpenError reports a host whose requests are being refused.
	CircuitOpenError = ythttp.CircuitOpenError
)

// Sentinel errors exported from sub-packages.
var (
	// Placement errors
	ErrInvalidMarkerOrder = music.ErrInvalidMarkerOrder
	ErrRegionOccupied     = music.ErrRegionOccupied
	ErrNoFittingCandidate = music.ErrNoFittingCandidate
	ErrEmptyPool          = music.ErrEmptyPool
	ErrNoLocations        = music.ErrNoLocations
	ErrNoPlacements       = music.ErrNoPlacements

	// Project errors
	ErrProjectNotFound = shotcut.ErrProjectNotFound
	ErrNotProject      = shotcut.ErrNotProject
	ErrNoMainTractor   = shotcut.ErrNoMainTractor
	ErrBadClock        = shotcut.ErrBadClock
	ErrOverlap         = shotcut.ErrOverlap

	// Google API errors
	ErrNoChannel        = youtube.ErrNoChannel
	ErrBadDuration      = youtube.ErrBadDuration
	ErrCalendarNotFound = calendar.ErrCalendarNotFound
	ErrNothingToDo      = playlist.ErrNothingToDo
	ErrCircuitOpen      = ythttp.ErrCircuitOpen

	// Credential errors
	ErrCredentialsNotFound = auth.ErrCredentialsNotFound
	ErrIncomplete          = auth.ErrIncomplete
	ErrNoCode              = auth.ErrNoCode
	ErrStateMismatch       = auth.ErrStateMismatch

	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
	// ErrPermanent marks an error that must not be retried.
	ErrPermanent = retry.ErrPermanent
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors and Google API errors such as
// exhausted quota.
func IsRetryable(err error) bool {
	return retry.IsGoogleRetryable(err)
}
