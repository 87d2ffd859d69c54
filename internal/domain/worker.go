package domain

import "time"

// WorkerInfo is the heartbeat record a grading pool worker keeps in Redis
// for diagnostics. Entries expire when heartbeats stop.
type WorkerInfo struct {
	ID            string    `json:"id"`
	Busy          bool      `json:"busy"`
	JobsProcessed int       `json:"jobsProcessed"`
	StartedAt     time.Time `json:"startedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	IsActive      bool      `json:"isActive"`
}
