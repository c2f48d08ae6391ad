package enums

import "fmt"

// RepairRequestStatus tracks where a repair ticket sits in its lifecycle.
type RepairRequestStatus string

const (
	RepairRequestStatusCreated    RepairRequestStatus = "created"
	RepairRequestStatusApproved   RepairRequestStatus = "approved"
	RepairRequestStatusInProgress RepairRequestStatus = "in_progress"
	RepairRequestStatusChecked    RepairRequestStatus = "checked"
	RepairRequestStatusCompleted  RepairRequestStatus = "completed"
	RepairRequestStatusRejected   RepairRequestStatus = "rejected"
)

var validRepairRequestStatuses = []RepairRequestStatus{
	RepairRequestStatusCreated,
	RepairRequestStatusApproved,
	RepairRequestStatusInProgress,
	RepairRequestStatusChecked,
	RepairRequestStatusCompleted,
	RepairRequestStatusRejected,
}

// String implements fmt.Stringer.
func (s RepairRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known status.
func (s RepairRequestStatus) IsValid() bool {
	for _, candidate := range validRepairRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no lifecycle edge leaves the status.
func (s RepairRequestStatus) IsTerminal() bool {
	return s == RepairRequestStatusCompleted || s == RepairRequestStatusRejected
}

// ParseRepairRequestStatus converts raw input into a RepairRequestStatus.
func ParseRepairRequestStatus(value string) (RepairRequestStatus, error) {
	for _, candidate := range validRepairRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repair request status %q", value)
}
