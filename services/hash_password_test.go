package services

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		stored, err := HashPassword("correct horse battery")
		if err != nil {
			t.Fatal("hash failed:", err)
		}

		match, err := VerifyPassword(stored, "correct horse battery")
		if err != nil {
			t.Fatal("verify errored:", err)
		}
		if !match {
			t.Fatal("correct password did not verify")
		}
	})

	t.Run("Format", func(t *testing.T) {
		stored, err := HashPassword("test1234")
		if err != nil {
			t.Fatal("hash failed:", err)
		}
		parts := strings.Split(stored, ":")
		if len(parts) != 2 {
			t.Fatalf("expected salt:hash, got %d parts", len(parts))
		}
		if parts[0] == "" || parts[1] == "" {
			t.Fatal("empty salt or hash segment")
		}
	})

	t.Run("SaltUniqueness", func(t *testing.T) {
		first, _ := HashPassword("same password")
		second, _ := HashPassword("same password")
		if first == second {
			t.Fatal("two hashes of the same password came out identical")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		stored, _ := HashPassword("right password")
		match, err := VerifyPassword(stored, "wrong password")
		if err != nil {
			t.Fatal("verify errored:", err)
		}
		if match {
			t.Fatal("wrong password verified")
		}
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		if _, err := HashPassword(""); err == nil {
			t.Fatal("empty password should not hash")
		}
	})

	t.Run("MalformedStored", func(t *testing.T) {
		for _, stored := range []string{"", "no-separator", "a:b:c", "!!!:???"} {
			if ComparePasswords(stored, "anything") {
				t.Fatalf("malformed record %q verified", stored)
			}
		}
	})
}

func TestCheckHashes(t *testing.T) {
	if !CheckHashes([]byte{1, 2, 3}, []byte{1, 2, 3}) {
		t.Fatal("equal digests reported unequal")
	}
	if CheckHashes([]byte{1, 2, 3}, []byte{1, 2, 4}) {
		t.Fatal("differing digests reported equal")
	}
	if CheckHashes([]byte{1, 2}, []byte{1, 2, 3}) {
		t.Fatal("length mismatch reported equal")
	}
}
