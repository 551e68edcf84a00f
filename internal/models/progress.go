package models

import "time"

// AggregateProgress holds denormalized per-profile totals derived from the
// session ledger. One row per profile, created alongside the profile and
// updated inside the same transaction as each session write.
type AggregateProgress struct {
	ProfileID               int64
	TotalPoints             int
	TotalExercisesCompleted int
	CurrentStreak           int
	LongestStreak           int
	LastSessionDate         *time.Time
	UpdatedAt               time.Time
}

// ProfileStats combines a child profile with its aggregate totals for the
// parent dashboard.
type ProfileStats struct {
	Profile   Profile
	Aggregate AggregateProgress
}
