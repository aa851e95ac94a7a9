package enums

import "fmt"

// RequestStatus tracks an off-catalog purchase request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusConverted RequestStatus = "converted"
	RequestStatusRejected  RequestStatus = "rejected"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusConverted,
	RequestStatusRejected,
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
