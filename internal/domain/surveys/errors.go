package surveys

import (
	"errors"
	"fmt"

	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
)

var (
	// ErrDuplicatePair is returned by storage when (environment, bssid, ssid) already exists
	ErrDuplicatePair = errors.New("duplicate bssid/ssid pair in environment")
	// ErrConcurrentUpload means another upload stored one of the pairs first
	ErrConcurrentUpload = errors.New("scan data changed by a concurrent upload, please retry")
	// ErrSSIDTooLong is returned by storage for names over the column width
	ErrSSIDTooLong = fmt.Errorf("ssid longer than %d bytes cannot be stored: %w", MaxSSIDBytes, shared.ErrValidation)
)

// DecodeError reports input that is not valid UTF-8 text
type DecodeError struct {
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("file is not valid UTF-8 text (invalid byte at offset %d)", e.Offset)
}
