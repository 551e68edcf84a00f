package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	password := "correct-horse-battery"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == password {
		t.Error("hash should not equal the plaintext password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword() should accept the correct password")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("CheckPassword() should reject a wrong password")
	}
	if CheckPassword(password, "not-a-bcrypt-hash") {
		t.Error("CheckPassword() should reject a malformed hash")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ by salt")
	}
}

func TestGenerateSessionID(t *testing.T) {
	first := GenerateSessionID()
	second := GenerateSessionID()

	if first == "" || second == "" {
		t.Error("session IDs should not be empty")
	}
	if first == second {
		t.Error("session IDs should be unique")
	}
}
