package enums

import "fmt"

// NotificationAction hints the client which control to render for a notification.
type NotificationAction string

const (
	NotificationActionNone    NotificationAction = "none"
	NotificationActionView    NotificationAction = "view"
	NotificationActionApprove NotificationAction = "approve"
	NotificationActionAccept  NotificationAction = "accept"
)

var validNotificationActions = []NotificationAction{
	NotificationActionNone,
	NotificationActionView,
	NotificationActionApprove,
	NotificationActionAccept,
}

func (n NotificationAction) String() string {
	return string(n)
}

// IsValid checks whether the action matches the canonical enum.
func (n NotificationAction) IsValid() bool {
	for _, candidate := range validNotificationActions {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationAction converts raw strings into NotificationAction.
func ParseNotificationAction(value string) (NotificationAction, error) {
	for _, candidate := range validNotificationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification action %q", value)
}
