package models

import "time"

// Session is an immutable record of one completed exercise. Sessions are
// append-only: a session is never edited after completion, only superseded
// by a new session. They are the single source of truth for unlock checks,
// path progress and aggregate totals.
type Session struct {
	ID              int64
	ProfileID       int64
	ExerciseID      int64
	PathID          *int64
	CompletedAt     time.Time
	DurationSeconds int
	QualityRating   int // 1-5
	PointsEarned    int
}
