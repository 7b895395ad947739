package validator

import (
	"testing"

	"sekolah/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupReq struct {
	NISN         string   `json:"nisn" validate:"required,nisn"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"omitempty,strongpw"`
	Relationship string   `json:"relationship" validate:"omitempty,relationship"`
	Roles        []string `json:"targetRoles" validate:"omitempty,dive,role"`
	SessionID    string   `json:"currentSessionId" validate:"omitempty,uuid"`
}

func TestValidate_OK(t *testing.T) {
	v := New()

	err := v.Validate(&signupReq{
		NISN:         "1234567890",
		Email:        "budi@example.com",
		Password:     "Rahasia@123",
		Relationship: "ibu",
		Roles:        []string{"student", "super_admin"},
		SessionID:    "6f1c2a7e-8b1d-4c1e-9f4a-0d6b2c3e4f5a",
	})
	assert.NoError(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	v := New()

	err := v.Validate(&signupReq{
		NISN:         "12345",
		Email:        "bukan-email",
		Password:     "lemah",
		Relationship: "paman",
		Roles:        []string{"guest"},
		SessionID:    "abc",
	})
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
	assert.Equal(t, "Validation failed", ae.Message)
	assert.Len(t, ae.Details, 6)
	assert.Contains(t, ae.Details, "NISN harus 10 digit angka")
	assert.Contains(t, ae.Details, "Email tidak valid")
	assert.Contains(t, ae.Details, "Hubungan harus ayah, ibu, atau wali")
	assert.Contains(t, ae.Details, "currentSessionId harus berupa UUID")
}

func TestValidate_RequiredUsesJSONName(t *testing.T) {
	v := New()

	err := v.Validate(&signupReq{})
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"nisn harus diisi", "email harus diisi"}, ae.Details)
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Rahasia@123": true,
		"Aa1!Aa1!":    true,
		"Aa1#Aa1#":    false,
		"rahasia@123": false,
		"RAHASIA@123": false,
		"Rahasia1234": false,
		"Rahasia@abc": false,
		"Ra@1":        false,
	}
	for pw, want := range cases {
		assert.Equal(t, want, StrongPassword(pw), pw)
	}
}
