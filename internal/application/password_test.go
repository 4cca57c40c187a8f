package application

import (
	"errors"
	"strings"
	"testing"
)

// Reduced cost parameters keep the hashing tests fast.
var testArgonParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery", testArgonParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash encoding: %q", hash)
	}

	if err := VerifyPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("VerifyPassword with wrong password: got %v", err)
	}
}

func TestHashPasswordSaltsUniquely(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("secret password", testArgonParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("secret password", testArgonParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ by salt")
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "plaintext", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"} {
		if err := VerifyPassword(hash, "whatever"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Errorf("VerifyPassword(%q): got %v, want ErrInvalidPasswordHash", hash, err)
		}
	}

	if err := VerifyPassword("$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA", "whatever"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
		t.Errorf("wrong version: got %v, want ErrIncompatiblePasswordVersion", err)
	}
}
