package models

import "time"

// AdventurePath is an ordered grouping of exercises into a multi-week
// journey. TotalExercises is derived from the path's membership and is
// recomputed whenever membership changes.
type AdventurePath struct {
	ID             int64
	Name           string
	Description    string
	TotalExercises int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PathExercise places one exercise at a position within an adventure path.
// Positions are unique per path.
type PathExercise struct {
	ID         int64
	PathID     int64
	ExerciseID int64
	Position   int
	WeekNumber int
}

// PathProgress status values
const (
	PathStatusLocked     = "locked"
	PathStatusAvailable  = "available"
	PathStatusInProgress = "in_progress"
	PathStatusCompleted  = "completed"
)

// PathProgress tracks one profile's progress through one adventure path.
// It is derived entirely from the profile's sessions and the path's
// membership; it is recomputed, never independently authored.
type PathProgress struct {
	ID                 int64
	ProfileID          int64
	PathID             int64
	Status             string
	ExercisesCompleted int
	ProgressPercentage float64
	StartedAt          *time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}
