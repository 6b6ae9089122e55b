package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// roomIDRegex matches the room ids accepted by the live channel and the
// room document store. Ids double as file names, so only word characters
// and hyphens are allowed.
var roomIDRegex = regexp.MustCompile(`^[\w\-]+$`)

// ValidateRoomID validates a room id for safety.
func ValidateRoomID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRoomID, "room id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidRoomID, "room id too long (max 128 characters)")
	}
	if !roomIDRegex.MatchString(id) {
		return New(ErrCodeInvalidRoomID, "invalid room id: %q", id)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateIdentifier validates a chemistry identifier (SMILES, InChIKey,
// reaction id) before it is sent to the chemistry service.
func ValidateIdentifier(kind, value string) error {
	if strings.TrimSpace(value) == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(value) > 4096 {
		return New(ErrCodeInvalidInput, "%s too long (max 4096 characters)", kind)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	return nil
}
