package repairrequests

import (
	"testing"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	roles := []enums.Role{rolePublic, enums.RoleUser, enums.RoleManager, enums.RoleMaster}
	want := map[Operation][]enums.Role{
		OpCreate:         {enums.RoleUser},
		OpCreateForEmail: {rolePublic, enums.RoleManager},
		OpPersonalize:    {enums.RoleMaster},
		OpApprove:        {enums.RoleManager, enums.RoleUser},
		OpReject:         {enums.RoleManager},
		OpMarkInProgress: {enums.RoleUser},
		OpMarkChecked:    {enums.RoleManager},
		OpMarkCompleted:  {enums.RoleMaster},
		OpDelete:         roles,
	}

	for op, allowed := range want {
		for _, role := range roles {
			assert.Equal(t, contains(allowed, role), Allowed(role, op), "role %q op %s", role, op)
		}
	}
	assert.False(t, Allowed(enums.RoleManager, Operation("archive")))
}

func TestTransitionTableEdges(t *testing.T) {
	tr, ok := transitionFor(OpApprove, enums.RoleUser, enums.RepairRequestStatusApproved)
	assert.True(t, ok)
	assert.Equal(t, guardMasterAssigned, tr.Guard)

	_, ok = transitionFor(OpApprove, enums.RoleUser, enums.RepairRequestStatusCreated)
	assert.False(t, ok)
	tr, ok = transitionFor(OpApprove, enums.RoleManager, enums.RepairRequestStatusApproved)
	assert.True(t, ok)
	assert.Equal(t, guardMasterAssigned, tr.Guard)
	_, ok = transitionFor(OpApprove, enums.RoleManager, enums.RepairRequestStatusRejected)
	assert.False(t, ok)
	_, ok = transitionFor(OpReject, enums.RoleManager, enums.RepairRequestStatusRejected)
	assert.False(t, ok)

	for _, tr := range transitionsTable {
		assert.True(t, Allowed(tr.Actor, tr.Op), "edge %s by %s is unreachable", tr.Op, tr.Actor)
		assert.False(t, tr.From.IsTerminal(), "terminal status %s has an outgoing edge", tr.From)
	}
}

func contains(list []enums.Role, role enums.Role) bool {
	for _, r := range list {
		if r == role {
			return true
		}
	}
	return false
}
