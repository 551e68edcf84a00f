package validation

import (
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "parent@example.com", false},
		{"valid with plus", "parent+kids@example.com", false},
		{"valid with subdomain", "parent@mail.example.co.uk", false},
		{"empty", "", true},
		{"missing at", "parentexample.com", true},
		{"missing domain", "parent@", true},
		{"missing tld", "parent@example", true},
		{"spaces trimmed", "  parent@example.com  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "password123", false},
		{"exactly eight characters", "12345678", false},
		{"empty", "", true},
		{"too short", "1234567", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		wantErr     bool
	}{
		{"valid name", "Alex", false},
		{"two characters", "Al", false},
		{"empty", "", true},
		{"only spaces", "   ", true},
		{"one character", "A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.displayName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDisplayName(%q) error = %v, wantErr %v", tt.displayName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChildBirthDate(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		birthDate time.Time
		wantErr   bool
	}{
		{"age 10", time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"turns 5 today", time.Date(2021, 8, 25, 0, 0, 0, 0, time.UTC), false},
		{"still 17", time.Date(2008, 9, 1, 0, 0, 0, 0, time.UTC), false},
		{"turned 18 already", time.Date(2008, 8, 1, 0, 0, 0, 0, time.UTC), true},
		{"age 4", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"zero value", time.Time{}, true},
		{"future date", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChildBirthDate(tt.birthDate, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChildBirthDate(%v) error = %v, wantErr %v", tt.birthDate, err, tt.wantErr)
			}
		})
	}
}

func TestValidateQualityRating(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{5, false},
		{6, true},
		{-1, true},
	}

	for _, tt := range tests {
		err := ValidateQualityRating(tt.rating)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateQualityRating(%d) error = %v, wantErr %v", tt.rating, err, tt.wantErr)
		}
	}
}
