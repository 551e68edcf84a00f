package models

import "time"

// Profile represents an account record, parent or child. Children have no
// login credential of their own: Email, PasswordHash, OAuthProvider and
// OAuthSubject are always empty for a child profile, and access to a child's
// data is granted exclusively through an active Relationship.
type Profile struct {
	ID           int64
	DisplayName  string
	BirthDate    time.Time
	IsChild      bool
	Email        string
	PasswordHash string

	// External login reference (parents only)
	OAuthProvider string
	OAuthSubject  string

	ConsentGiven bool
	ConsentAt    *time.Time

	// Privacy preferences
	ShareProgress     bool
	ShowOnLeaderboard bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLogin reports whether the profile carries any login credential
// (password or external provider reference).
func (p *Profile) HasLogin() bool {
	return p.Email != "" || p.OAuthSubject != ""
}

// Age returns the profile's age in whole years at the given time.
func (p *Profile) Age(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	// Birthday not yet reached this year
	if now.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	return years
}
