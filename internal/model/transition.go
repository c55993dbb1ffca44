package model

import "time"

// Transition status constants.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusCanceled = "canceled"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning:  true,
		StatusFinished: true,
		StatusCanceled: true,
	},
	StatusRunning: {
		StatusFinished: true,
		StatusCanceled: true,
	},
}

// ValidTransition reports whether moving from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Transition is the journaled record of one animation batch: a coordinated
// set of elements handed to a single remote animator call.
type Transition struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	AppCount   int        `json:"app_count"`
	AuxCount   int        `json:"aux_count"`
	CallingPID int        `json:"calling_pid"`
	CallingUID int        `json:"calling_uid"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
