package notifications

import (
	"fmt"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a lifecycle event that produces notifications.
type Kind string

const (
	KindCreated           Kind = "created"
	KindCreatedForEmail   Kind = "created_for_email"
	KindPersonalized      Kind = "personalized"
	KindApprovedByManager Kind = "approved_by_manager"
	KindApprovedByUser    Kind = "approved_by_user"
	KindRejected          Kind = "rejected"
	KindInProgress        Kind = "in_progress"
	KindChecked           Kind = "checked"
	KindCompleted         Kind = "completed"
)

// Event describes a committed change to a repair request. ActorID is nil for
// anonymous callers.
type Event struct {
	Kind        Kind
	ActorID     *uuid.UUID
	RequestID   uuid.UUID
	OwnerID     uuid.UUID
	MasterID    *uuid.UUID
	DeviceModel string
	Price       *decimal.Decimal
	EndTime     *time.Time
}

// Recipient is one addressee of an event with the action hint shown to them.
type Recipient struct {
	UserID uuid.UUID
	Action enums.NotificationAction
}

type audience int

const (
	toOwner audience = 1 << iota
	toMaster
	toManagers
)

type rule struct {
	audience audience
	action   enums.NotificationAction
	title    string
	message  func(Event) string
}

var rules = map[Kind]rule{
	KindCreated: {
		audience: toManagers,
		action:   enums.NotificationActionApprove,
		title:    "New repair request",
		message: func(e Event) string {
			return fmt.Sprintf("A new repair request for %s is waiting for review.", e.DeviceModel)
		},
	},
	KindCreatedForEmail: {
		audience: toOwner,
		action:   enums.NotificationActionApprove,
		title:    "Repair request received",
		message: func(e Event) string {
			return fmt.Sprintf("We received a repair request for %s on your behalf. Sign in to follow its progress.", e.DeviceModel)
		},
	},
	KindPersonalized: {
		audience: toOwner | toManagers,
		action:   enums.NotificationActionAccept,
		title:    "Repair request priced",
		message:  personalizedMessage,
	},
	KindApprovedByManager: {
		audience: toOwner,
		action:   enums.NotificationActionView,
		title:    "Repair request approved",
		message: func(e Event) string {
			return fmt.Sprintf("Your repair request for %s was approved.", e.DeviceModel)
		},
	},
	KindApprovedByUser: {
		audience: toManagers | toMaster,
		action:   enums.NotificationActionView,
		title:    "Quote accepted",
		message: func(e Event) string {
			return fmt.Sprintf("The owner accepted the quote for %s.", e.DeviceModel)
		},
	},
	KindRejected: {
		audience: toOwner,
		action:   enums.NotificationActionView,
		title:    "Repair request rejected",
		message: func(e Event) string {
			return fmt.Sprintf("Your repair request for %s was rejected.", e.DeviceModel)
		},
	},
	KindInProgress: {
		audience: toMaster,
		action:   enums.NotificationActionView,
		title:    "Repair can start",
		message: func(e Event) string {
			return fmt.Sprintf("The owner marked the repair of %s as in progress.", e.DeviceModel)
		},
	},
	KindChecked: {
		audience: toMaster,
		action:   enums.NotificationActionView,
		title:    "Repair checked",
		message: func(e Event) string {
			return fmt.Sprintf("A manager checked the repair of %s.", e.DeviceModel)
		},
	},
	KindCompleted: {
		audience: toOwner,
		action:   enums.NotificationActionView,
		title:    "Repair completed",
		message: func(e Event) string {
			return fmt.Sprintf("The repair of %s is complete.", e.DeviceModel)
		},
	},
}

func personalizedMessage(e Event) string {
	msg := fmt.Sprintf("A master reviewed the repair of %s", e.DeviceModel)
	if e.Price != nil {
		msg += " and quoted " + e.Price.StringFixed(2)
	}
	if e.EndTime != nil {
		msg += ", ready by " + e.EndTime.UTC().Format("2006-01-02 15:04 MST")
	}
	return msg + "."
}

// Recipients resolves who hears about e. managers is the current list of
// manager ids. The actor is dropped and duplicates are removed, keeping the
// first occurrence. Unknown kinds have no recipients.
func Recipients(e Event, managers []uuid.UUID) []Recipient {
	r, ok := rules[e.Kind]
	if !ok {
		return nil
	}

	candidates := make([]uuid.UUID, 0, len(managers)+2)
	if r.audience&toOwner != 0 && e.OwnerID != uuid.Nil {
		candidates = append(candidates, e.OwnerID)
	}
	if r.audience&toMaster != 0 && e.MasterID != nil && *e.MasterID != uuid.Nil {
		candidates = append(candidates, *e.MasterID)
	}
	if r.audience&toManagers != 0 {
		candidates = append(candidates, managers...)
	}

	seen := make(map[uuid.UUID]struct{}, len(candidates))
	out := make([]Recipient, 0, len(candidates))
	for _, id := range candidates {
		if e.ActorID != nil && id == *e.ActorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Recipient{UserID: id, Action: r.action})
	}
	return out
}

func needsManagers(kind Kind) bool {
	r, ok := rules[kind]
	return ok && r.audience&toManagers != 0
}
