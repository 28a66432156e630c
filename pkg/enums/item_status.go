package enums

import "fmt"

// ItemStatus is the lifecycle state of a tracked item.
type ItemStatus string

const (
	ItemStatusInFridge ItemStatus = "in_fridge"
	ItemStatusRemoved  ItemStatus = "removed"
)

var validItemStatuses = []ItemStatus{
	ItemStatusInFridge,
	ItemStatusRemoved,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Items only ever leave the fridge; a removed item stays removed.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if s == next {
		return true
	}
	return s == ItemStatusInFridge && next == ItemStatusRemoved
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
