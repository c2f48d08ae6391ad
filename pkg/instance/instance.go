package instance

import (
	"os"

	"github.com/angelmondragon/repairdesk-backend/pkg/env"
)

const defaultID = "api-0"

// GetID identifies this API process in logs. REPAIRDESK_INSTANCE_ID wins,
// then DYNO, then the hostname.
func GetID() string {
	if id := env.Get("REPAIRDESK_INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
