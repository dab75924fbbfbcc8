package types

type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDown     HealthStatus = "DOWN"
	HealthStatusDegraded HealthStatus = "DEGRADED"
)

type HealthComponent struct {
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// HealthCheck is the body of the health endpoints.
type HealthCheck struct {
	Status      HealthStatus               `json:"status"`
	Components  map[string]HealthComponent `json:"components"`
	Version     string                     `json:"version"`
	Timestamp   string                     `json:"timestamp"`
	Uptime      string                     `json:"uptime"`
	Replication string                     `json:"replication"`
}
