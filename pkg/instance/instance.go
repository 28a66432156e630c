package instance

import (
	"os"

	"github.com/angelmondragon/fridge-monitor/pkg/env"
)

const EnvWorkerID = "FRIDGE_WORKER_ID"

// GetID names this worker process: FRIDGE_WORKER_ID, else the host name,
// else "worker-0".
func GetID() string {
	if id := env.Get(EnvWorkerID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
