package repairrequests

import (
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// Operation names an action a caller can take on repair requests.
type Operation string

const (
	OpCreate         Operation = "create"
	OpCreateForEmail Operation = "create_for_email"
	OpPersonalize    Operation = "personalize"
	OpApprove        Operation = "approve"
	OpReject         Operation = "reject"
	OpMarkInProgress Operation = "mark_in_progress"
	OpMarkChecked    Operation = "mark_checked"
	OpMarkCompleted  Operation = "mark_completed"
	OpDelete         Operation = "delete"
	OpUpdate         Operation = "update"
	OpList           Operation = "list"
	OpListMine       Operation = "list_mine"
	OpListAssigned   Operation = "list_assigned"
	OpGet            Operation = "get"
)

// Actor is the caller of an operation. The zero Actor is anonymous.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// Anonymous reports whether the caller is unauthenticated.
func (a Actor) Anonymous() bool {
	return a.ID == uuid.Nil
}

// rolePublic stands for anonymous callers in the permission table.
const rolePublic enums.Role = ""

// any role, including anonymous
var unrestricted = []enums.Role{rolePublic, enums.RoleUser, enums.RoleManager, enums.RoleMaster}

var permissions = map[Operation][]enums.Role{
	OpCreate:         {enums.RoleUser},
	OpCreateForEmail: {rolePublic, enums.RoleManager},
	OpPersonalize:    {enums.RoleMaster},
	OpApprove:        {enums.RoleManager, enums.RoleUser},
	OpReject:         {enums.RoleManager},
	OpMarkInProgress: {enums.RoleUser},
	OpMarkChecked:    {enums.RoleManager},
	OpMarkCompleted:  {enums.RoleMaster},
	OpDelete:         unrestricted,
	OpUpdate:         {enums.RoleManager},
	OpList:           {enums.RoleManager, enums.RoleMaster},
	OpListMine:       {enums.RoleUser, enums.RoleManager, enums.RoleMaster},
	OpListAssigned:   {enums.RoleMaster},
	OpGet:            {enums.RoleManager, enums.RoleMaster},
}

// Allowed reports whether role may invoke op. The empty role is an
// anonymous caller. Unknown operations are never allowed.
func Allowed(role enums.Role, op Operation) bool {
	for _, candidate := range permissions[op] {
		if candidate == role {
			return true
		}
	}
	return false
}
