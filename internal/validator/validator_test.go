package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ekharid/internal/model"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role     string `json:"role" validate:"omitempty,oneof=buyer seller"`
}

func TestValidateOK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(signup{Email: "a@b.co", Password: "x", Confirm: "x"}))
}

func TestValidateReportsJSONNames(t *testing.T) {
	v := New()
	tests := []struct {
		name string
		in   signup
		want string
	}{
		{"missing email", signup{Password: "x", Confirm: "x"}, "email is required"},
		{"bad email", signup{Email: "nope", Password: "x", Confirm: "x"}, "email must be a valid email"},
		{"mismatch", signup{Email: "a@b.co", Password: "x", Confirm: "y"}, "confirmPassword must match password"},
		{"role", signup{Email: "a@b.co", Password: "x", Confirm: "x", Role: "admin"}, "role must be one of buyer seller"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFieldsListsEveryFailure(t *testing.T) {
	fields := New().Fields(signup{})
	require.Len(t, fields, 3)
	assert.Equal(t, "email", fields[0].FailedField)
	assert.Equal(t, "required", fields[0].Tag)
}
