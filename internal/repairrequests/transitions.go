package repairrequests

import (
	"github.com/angelmondragon/repairdesk-backend/internal/notifications"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
)

// guard is an extra condition on the request an edge depends on.
type guard int

const (
	guardNone guard = iota
	// the request must already be priced by a master
	guardMasterAssigned
)

// transition is a single allowed edge of the lifecycle.
type transition struct {
	Op    Operation
	Actor enums.Role
	From  enums.RepairRequestStatus
	To    enums.RepairRequestStatus
	Event notifications.Kind
	Guard guard
}

var transitionsTable = []transition{
	// Pricing
	{Op: OpPersonalize, Actor: enums.RoleMaster, From: enums.RepairRequestStatusCreated, To: enums.RepairRequestStatusApproved, Event: notifications.KindPersonalized},
	{Op: OpPersonalize, Actor: enums.RoleMaster, From: enums.RepairRequestStatusApproved, To: enums.RepairRequestStatusApproved, Event: notifications.KindPersonalized},

	// Approval
	{Op: OpApprove, Actor: enums.RoleManager, From: enums.RepairRequestStatusCreated, To: enums.RepairRequestStatusApproved, Event: notifications.KindApprovedByManager},
	{Op: OpApprove, Actor: enums.RoleManager, From: enums.RepairRequestStatusApproved, To: enums.RepairRequestStatusApproved, Event: notifications.KindApprovedByManager, Guard: guardMasterAssigned},
	{Op: OpApprove, Actor: enums.RoleUser, From: enums.RepairRequestStatusApproved, To: enums.RepairRequestStatusApproved, Event: notifications.KindApprovedByUser, Guard: guardMasterAssigned},

	// Rejection
	{Op: OpReject, Actor: enums.RoleManager, From: enums.RepairRequestStatusCreated, To: enums.RepairRequestStatusRejected, Event: notifications.KindRejected},
	{Op: OpReject, Actor: enums.RoleManager, From: enums.RepairRequestStatusApproved, To: enums.RepairRequestStatusRejected, Event: notifications.KindRejected},

	// Work
	{Op: OpMarkInProgress, Actor: enums.RoleUser, From: enums.RepairRequestStatusApproved, To: enums.RepairRequestStatusInProgress, Event: notifications.KindInProgress},
	{Op: OpMarkChecked, Actor: enums.RoleManager, From: enums.RepairRequestStatusInProgress, To: enums.RepairRequestStatusChecked, Event: notifications.KindChecked},
	{Op: OpMarkCompleted, Actor: enums.RoleMaster, From: enums.RepairRequestStatusInProgress, To: enums.RepairRequestStatusCompleted, Event: notifications.KindCompleted},
	{Op: OpMarkCompleted, Actor: enums.RoleMaster, From: enums.RepairRequestStatusChecked, To: enums.RepairRequestStatusCompleted, Event: notifications.KindCompleted},
}

// transitionFor returns the edge op takes from the given status when invoked by role.
func transitionFor(op Operation, role enums.Role, from enums.RepairRequestStatus) (transition, bool) {
	for _, tr := range transitionsTable {
		if tr.Op == op && tr.Actor == role && tr.From == from {
			return tr, true
		}
	}
	return transition{}, false
}
