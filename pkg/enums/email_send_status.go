package enums

import "fmt"

// EmailSendStatus records the outcome of a dispatch attempt.
type EmailSendStatus string

const (
	EmailSendStatusSuccess EmailSendStatus = "success"
	EmailSendStatusFailed  EmailSendStatus = "failed"
)

var validEmailSendStatuses = []EmailSendStatus{
	EmailSendStatusSuccess,
	EmailSendStatusFailed,
}

// String implements fmt.Stringer.
func (s EmailSendStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EmailSendStatus.
func (s EmailSendStatus) IsValid() bool {
	for _, candidate := range validEmailSendStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEmailSendStatus converts raw input into an EmailSendStatus.
func ParseEmailSendStatus(value string) (EmailSendStatus, error) {
	for _, candidate := range validEmailSendStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email send status %q", value)
}
