package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("hash must not equal the password")
	}
	if !Verify("correct-horse", hash) {
		t.Fatal("expected password to verify")
	}
	if Verify("battery-staple", hash) {
		t.Fatal("wrong password verified")
	}
}

func TestCheckLength(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"too short", "short", ErrTooShort},
		{"min", strings.Repeat("a", MinLength), nil},
		{"max", strings.Repeat("a", MaxLength), nil},
		{"too long", strings.Repeat("a", MaxLength+1), ErrTooLong},
		// 8 runes but 16 bytes
		{"multibyte", "паролька", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Check(tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
