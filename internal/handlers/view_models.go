package handlers

import (
	"time"

	"fitquest/internal/models"
)

// ProfileView is the JSON shape of a profile. Login references and password
// hashes never leave the server.
type ProfileView struct {
	ID                int64  `json:"id"`
	DisplayName       string `json:"display_name"`
	BirthDate         string `json:"birth_date,omitempty"`
	IsChild           bool   `json:"is_child"`
	ConsentGiven      bool   `json:"consent_given"`
	ShareProgress     bool   `json:"share_progress"`
	ShowOnLeaderboard bool   `json:"show_on_leaderboard"`
}

func profileView(p *models.Profile) ProfileView {
	view := ProfileView{
		ID:                p.ID,
		DisplayName:       p.DisplayName,
		IsChild:           p.IsChild,
		ConsentGiven:      p.ConsentGiven,
		ShareProgress:     p.ShareProgress,
		ShowOnLeaderboard: p.ShowOnLeaderboard,
	}
	if !p.BirthDate.IsZero() {
		view.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	return view
}

func profileViews(profiles []models.Profile) []ProfileView {
	views := make([]ProfileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, profileView(&profiles[i]))
	}
	return views
}

// ExerciseView is the JSON shape of a catalog exercise
type ExerciseView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Difficulty      string `json:"difficulty"`
	AdventurePoints int    `json:"adventure_points"`
}

func exerciseView(e *models.Exercise) ExerciseView {
	return ExerciseView{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Difficulty:      e.Difficulty.String(),
		AdventurePoints: e.AdventurePoints,
	}
}

// SessionView is the JSON shape of a ledger entry
type SessionView struct {
	ID              int64  `json:"id"`
	ProfileID       int64  `json:"profile_id"`
	ExerciseID      int64  `json:"exercise_id"`
	PathID          *int64 `json:"path_id,omitempty"`
	CompletedAt     string `json:"completed_at"`
	DurationSeconds int    `json:"duration_seconds"`
	QualityRating   int    `json:"quality_rating"`
	PointsEarned    int    `json:"points_earned"`
}

func sessionView(s *models.Session) SessionView {
	return SessionView{
		ID:              s.ID,
		ProfileID:       s.ProfileID,
		ExerciseID:      s.ExerciseID,
		PathID:          s.PathID,
		CompletedAt:     s.CompletedAt.Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		QualityRating:   s.QualityRating,
		PointsEarned:    s.PointsEarned,
	}
}

// PathProgressView is the JSON shape of one path progress row
type PathProgressView struct {
	PathID             int64   `json:"path_id"`
	Status             string  `json:"status"`
	ExercisesCompleted int     `json:"exercises_completed"`
	ProgressPercentage float64 `json:"progress_percentage"`
	StartedAt          *string `json:"started_at,omitempty"`
	CompletedAt        *string `json:"completed_at,omitempty"`
}

func pathProgressView(pp *models.PathProgress) PathProgressView {
	view := PathProgressView{
		PathID:             pp.PathID,
		Status:             pp.Status,
		ExercisesCompleted: pp.ExercisesCompleted,
		ProgressPercentage: pp.ProgressPercentage,
	}
	if pp.StartedAt != nil {
		s := pp.StartedAt.Format(time.RFC3339)
		view.StartedAt = &s
	}
	if pp.CompletedAt != nil {
		s := pp.CompletedAt.Format(time.RFC3339)
		view.CompletedAt = &s
	}
	return view
}

// AggregateView is the JSON shape of the aggregate totals
type AggregateView struct {
	ProfileID               int64  `json:"profile_id"`
	TotalPoints             int    `json:"total_points"`
	TotalExercisesCompleted int    `json:"total_exercises_completed"`
	CurrentStreak           int    `json:"current_streak"`
	LongestStreak           int    `json:"longest_streak"`
	LastSessionDate         string `json:"last_session_date,omitempty"`
}

func aggregateView(a *models.AggregateProgress) AggregateView {
	view := AggregateView{
		ProfileID:               a.ProfileID,
		TotalPoints:             a.TotalPoints,
		TotalExercisesCompleted: a.TotalExercisesCompleted,
		CurrentStreak:           a.CurrentStreak,
		LongestStreak:           a.LongestStreak,
	}
	if a.LastSessionDate != nil {
		view.LastSessionDate = a.LastSessionDate.Format("2006-01-02")
	}
	return view
}
