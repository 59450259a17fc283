package api

import "time"

type HealthState string

const (
	HealthOperational HealthState = "operational"
	HealthDegraded    HealthState = "degraded"
	HealthDown        HealthState = "down"
)

// HealthStatus is a single probe reading. A new reading supersedes the previous
// one; readings are never mutated.
type HealthStatus struct {
	ID             string      `json:"id,omitempty" db:"id"`
	Provider       string      `json:"provider" db:"provider"`
	State          HealthState `json:"status" db:"state"`
	Message        string      `json:"message" db:"message"`
	ResponseTimeMs *int64      `json:"responseTime,omitempty" db:"response_time_ms"`
	LastCheckedAt  time.Time   `json:"lastChecked" db:"checked_at"`
}
