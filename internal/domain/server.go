package domain

import (
	"errors"
	"fmt"
	"time"
)

// ServerRecord is the persisted pid/host/port tuple describing the last known
// running service instance. Its presence on disk is a hint, not ground truth:
// readers must verify liveness independently because the file can outlive a
// crashed process.
type ServerRecord struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"started_at"`
}

// Addr returns the host:port the record points at.
func (r ServerRecord) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerState is the externally observed lifecycle state of the service.
type ServerState string

const (
	ServerRunning ServerState = "RUNNING"
	ServerStopped ServerState = "STOPPED"
)

// StopOutcome distinguishes a clean stop from a best-effort one that left a
// live pid or an answering port behind.
type StopOutcome string

const (
	StopClean     StopOutcome = "STOPPED"
	StopWithIssue StopOutcome = "STOPPED_WITH_ISSUE"
)

// ErrPortForeignOccupant is returned when the configured port is bound by a
// process that does not answer this service's health check. The occupant is
// never evicted.
var ErrPortForeignOccupant = errors.New("port occupied by foreign process")
