package controllers

import (
	"net/http"

	"github.com/angelmondragon/repairdesk-backend/api/middleware"
	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
)

func requireIdentity(r *http.Request) (uuid.UUID, enums.Role, error) {
	id, role, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return id, role, nil
}

// actorFromRequest returns the anonymous Actor when no identity is attached.
func actorFromRequest(r *http.Request) repairrequests.Actor {
	id, role, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return repairrequests.Actor{}
	}
	return repairrequests.Actor{ID: id, Role: role}
}
