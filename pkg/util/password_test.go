package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "MyPassword1!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  false, // bcrypt can hash empty strings
		},
		{
			name:     "Long password",
			password: "this-is-a-long-password-with-special-chars!@#$%^",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, hash)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hash)
				assert.NotEqual(t, tt.password, hash)
				assert.Contains(t, hash, "$2a$")
			}
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "MySecurePassword1!"
	hash, err := HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		hashedPassword string
		password       string
		want           bool
	}{
		{
			name:           "Correct password",
			hashedPassword: hash,
			password:       password,
			want:           true,
		},
		{
			name:           "Wrong password",
			hashedPassword: hash,
			password:       "WrongPassword1!",
			want:           false,
		},
		{
			name:           "Invalid hash",
			hashedPassword: "not-a-bcrypt-hash",
			password:       password,
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyPassword(tt.hashedPassword, tt.password)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []PasswordViolation
	}{
		{
			name:     "All categories present",
			password: "Abcdef1!",
			want:     nil,
		},
		{
			name:     "Short lowercase only",
			password: "abc",
			want: []PasswordViolation{
				ViolationLength,
				ViolationUppercase,
				ViolationDigit,
				ViolationSpecial,
			},
		},
		{
			name:     "Missing special character",
			password: "Abcdefg1",
			want:     []PasswordViolation{ViolationSpecial},
		},
		{
			name:     "Missing digit",
			password: "Abcdefg!",
			want:     []PasswordViolation{ViolationDigit},
		},
		{
			name:     "Missing uppercase",
			password: "abcdefg1!",
			want:     []PasswordViolation{ViolationUppercase},
		},
		{
			name:     "Missing lowercase",
			password: "ABCDEFG1!",
			want:     []PasswordViolation{ViolationLowercase},
		},
		{
			name:     "Empty password reports everything",
			password: "",
			want: []PasswordViolation{
				ViolationLength,
				ViolationUppercase,
				ViolationLowercase,
				ViolationDigit,
				ViolationSpecial,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password)
			assert.Equal(t, tt.want, got)
		})
	}
}
