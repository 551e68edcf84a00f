package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitquest/internal/security"
)

func TestRegisterAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)

	profile, err := env.auth.Register("login@example.com", "password123", "Parent", time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if profile.IsChild {
		t.Error("registered profile should not be a child")
	}
	if profile.PasswordHash == "password123" {
		t.Error("password must be stored hashed")
	}

	// Aggregate row is created alongside the profile
	agg, err := env.progressRepo.GetAggregate(profile.ID)
	if err != nil {
		t.Fatalf("GetAggregate() error: %v", err)
	}
	if agg == nil {
		t.Error("registration should create the aggregate progress row")
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.auth.Register("login@example.com", "password123", "Other Parent", time.Time{})
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("error = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("successful login", func(t *testing.T) {
		session, loggedIn, err := env.auth.Login("login@example.com", "password123")
		if err != nil {
			t.Fatalf("Login() error: %v", err)
		}
		if loggedIn.ID != profile.ID {
			t.Errorf("logged in profile ID = %d, want %d", loggedIn.ID, profile.ID)
		}

		resolved, err := env.auth.ValidateSession(session.ID)
		if err != nil {
			t.Fatalf("ValidateSession() error: %v", err)
		}
		if resolved.ID != profile.ID {
			t.Errorf("resolved profile ID = %d, want %d", resolved.ID, profile.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := env.auth.Login("login@example.com", "not-the-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := env.auth.Login("nobody@example.com", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestRegisterRollsBackOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)

	// Break the aggregate insert so registration fails after the profile row
	// has been written. The whole transaction must roll back.
	if _, err := env.db.Exec("DROP TABLE aggregate_progress"); err != nil {
		t.Fatalf("Failed to drop aggregate_progress: %v", err)
	}

	if _, err := env.auth.Register("atomic@example.com", "password123", "Parent", time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("Register() should fail when the aggregate row cannot be created")
	}

	profile, err := env.profileRepo.GetProfileByEmail("atomic@example.com")
	if err != nil {
		t.Fatalf("GetProfileByEmail() error: %v", err)
	}
	if profile != nil {
		t.Error("failed registration left a profile row behind")
	}

	t.Run("oauth signup", func(t *testing.T) {
		if _, _, err := env.auth.LoginWithOAuth("google", "sub-atomic", "atomic2@example.com", "Parent"); err == nil {
			t.Fatal("LoginWithOAuth() should fail when the aggregate row cannot be created")
		}

		profile, err := env.profileRepo.GetProfileByLogin("google", "sub-atomic")
		if err != nil {
			t.Fatalf("GetProfileByLogin() error: %v", err)
		}
		if profile != nil {
			t.Error("failed oauth signup left a profile row behind")
		}
	})
}

func TestLogout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	parent := env.createParent(t, "Parent")

	session, _, err := env.auth.Login(parent.Email, "password123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := env.auth.Logout(session.ID); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}

	if _, err := env.auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("post-logout validation error = %v, want ErrSessionNotFound", err)
	}
}

func TestLoginWithOAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)

	// First login creates the profile
	session, profile, err := env.auth.LoginWithOAuth("google", "sub-12345", "oauth@example.com", "OAuth Parent")
	if err != nil {
		t.Fatalf("LoginWithOAuth() error: %v", err)
	}
	if profile.OAuthProvider != "google" || profile.OAuthSubject != "sub-12345" {
		t.Errorf("login reference = (%q, %q), want (google, sub-12345)", profile.OAuthProvider, profile.OAuthSubject)
	}
	if session.ProfileID != profile.ID {
		t.Errorf("session profile ID = %d, want %d", session.ProfileID, profile.ID)
	}

	// Second login resolves to the same profile
	_, again, err := env.auth.LoginWithOAuth("google", "sub-12345", "oauth@example.com", "OAuth Parent")
	if err != nil {
		t.Fatalf("second LoginWithOAuth() error: %v", err)
	}
	if again.ID != profile.ID {
		t.Errorf("second login resolved profile %d, want %d", again.ID, profile.ID)
	}

	t.Run("empty subject rejected", func(t *testing.T) {
		_, _, err := env.auth.LoginWithOAuth("google", "", "oauth@example.com", "OAuth Parent")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestResetPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	parent := env.createParent(t, "Parent")

	token := security.GenerateResetToken()
	if err := env.authRepo.CreateResetToken(token, parent.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateResetToken() error: %v", err)
	}

	if err := env.auth.ResetPassword(token, "new-password-1"); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}

	// The new password works, the old one does not
	if _, _, err := env.auth.Login(parent.Email, "new-password-1"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, _, err := env.auth.Login(parent.Email, "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password login error = %v, want ErrInvalidCredentials", err)
	}

	t.Run("token single use", func(t *testing.T) {
		err := env.auth.ResetPassword(token, "another-password")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("reused token error = %v, want ErrInvalidResetToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := security.GenerateResetToken()
		if err := env.authRepo.CreateResetToken(expired, parent.ID, time.Now().Add(-time.Minute)); err != nil {
			t.Fatalf("CreateResetToken() error: %v", err)
		}
		err := env.auth.ResetPassword(expired, "another-password")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("expired token error = %v, want ErrInvalidResetToken", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		err := env.auth.ResetPassword("no-such-token", "another-password")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("unknown token error = %v, want ErrInvalidResetToken", err)
		}
	})
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)

	// Unknown addresses succeed silently so the endpoint cannot be probed
	if err := env.auth.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("RequestPasswordReset() for unknown email error = %v, want nil", err)
	}
}
