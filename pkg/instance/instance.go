// Package instance names the running process for log correlation across replicas.
package instance

import (
	"os"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/env"
)

const fallbackID = "local"

// ID prefers an explicit worker id, then the platform dyno name, then the host name.
func ID() string {
	if id := env.First("EASYBUY_INSTANCE_ID", "WORKER_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
