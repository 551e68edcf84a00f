package models

import "time"

// Relationship is a consent-bearing edge granting a parent access to a
// child's data. It grants access, never ownership: sessions and progress
// rows always belong to the child profile.
type Relationship struct {
	ID           int64
	ParentID     int64
	ChildID      int64
	ConsentGiven bool
	ConsentAt    *time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
