package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	OutcomeUpdated      = "updated"
	OutcomeKeptPrevious = "kept_previous"
	OutcomeFailed       = "failed"
)

// Run describes a single sync run
type Run struct {
	ID         uuid.UUID
	Mode       string
	Source     string // candidate that produced the posts, empty on failure
	Outcome    string
	Posts      int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
