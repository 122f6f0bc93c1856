// Package instance names the running process for logs and lock ownership.
package instance

import "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/env"

var sources = []string{"ELOITY_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns the first instance identifier found in the environment, or "local".
func GetID() string {
	return env.GetDefault(sources, "local")
}
