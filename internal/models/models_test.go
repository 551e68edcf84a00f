package models

import (
	"testing"
	"time"
)

func TestDifficultyString(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		want       string
	}{
		{DifficultyEasy, "easy"},
		{DifficultyMedium, "medium"},
		{DifficultyHard, "hard"},
		{Difficulty(9), "difficulty(9)"},
	}

	for _, tt := range tests {
		if got := tt.difficulty.String(); got != tt.want {
			t.Errorf("Difficulty(%d).String() = %q, want %q", int(tt.difficulty), got, tt.want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input   string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{"hard", DifficultyHard, false},
		{"extreme", 0, true},
		{"", 0, true},
		{"Easy", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDifficulty(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDifficulty(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestProfileHasLogin(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{"password login", Profile{Email: "p@example.com", PasswordHash: "hash"}, true},
		{"oauth login", Profile{OAuthProvider: "google", OAuthSubject: "sub-123"}, true},
		{"child without login", Profile{DisplayName: "Alex", IsChild: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.HasLogin(); got != tt.want {
				t.Errorf("HasLogin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfileAge(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		birthDate time.Time
		want      int
	}{
		{"birthday already passed", time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), 8},
		{"birthday today", time.Date(2018, 8, 25, 0, 0, 0, 0, time.UTC), 8},
		{"birthday not yet reached", time.Date(2018, 11, 1, 0, 0, 0, 0, time.UTC), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{BirthDate: tt.birthDate}
			if got := p.Age(now); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoginSessionIsExpired(t *testing.T) {
	active := LoginSession{ExpiresAt: time.Now().Add(time.Hour)}
	if active.IsExpired() {
		t.Error("session expiring in the future should not be expired")
	}

	expired := LoginSession{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("session with a past expiry should be expired")
	}
}

func TestPasswordResetTokenIsExpired(t *testing.T) {
	active := PasswordResetToken{ExpiresAt: time.Now().Add(time.Hour)}
	if active.IsExpired() {
		t.Error("token expiring in the future should not be expired")
	}

	expired := PasswordResetToken{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("token with a past expiry should be expired")
	}
}
