package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Fatalf("check with correct password: %v", err)
	}

	if err := CheckPassword("wrong-pass", hash); err == nil {
		t.Fatal("expected mismatch error for wrong password")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ")
	}
}
