package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
	"github.com/iliyamo/ekharid/internal/utils"
)

const testSecret = "service-test-secret-service-test-secret"

func newAuth() *AuthService {
	return NewAuthService(repository.NewMemoryStore(), testSecret, 15, bcrypt.MinCost)
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FullName:        "Sara Seller",
		Username:        "sara",
		Email:           "Sara@Example.com ",
		Password:        "pa55word",
		ConfirmPassword: "pa55word",
		Role:            "seller",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newAuth()

	u, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", u.Email)
	assert.Equal(t, model.RoleSeller, u.Role)
	assert.NotEqual(t, "pa55word", u.PasswordHash)

	res, err := s.Login(ctx, "SARA@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	claims, err := utils.ParseAccessToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RoleSeller, claims.Role)
}

func TestRegisterDefaultsToBuyer(t *testing.T) {
	in := validRegistration()
	in.Role = ""
	u, err := newAuth().Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleBuyer, u.Role)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.FullName = "" }},
		{"missing username", func(in *RegisterInput) { in.Username = " " }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "other" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "admin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, err := newAuth().Register(context.Background(), in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newAuth()
	_, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = s.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, model.ErrConflict)

	in := validRegistration()
	in.Email = "other@example.com"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, repository.ErrUsernameExists)
}

func TestLoginHidesWhichFieldWasWrong(t *testing.T) {
	ctx := context.Background()
	s := newAuth()
	_, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, errPass := s.Login(ctx, "sara@example.com", "wrong")
	_, errMail := s.Login(ctx, "nobody@example.com", "pa55word")
	assert.ErrorIs(t, errPass, model.ErrUnauthorized)
	assert.ErrorIs(t, errMail, model.ErrUnauthorized)
	assert.Equal(t, errPass.Error(), errMail.Error())
}

func TestSellerDetails(t *testing.T) {
	ctx := context.Background()
	s := newAuth()
	seller, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	buyerIn := validRegistration()
	buyerIn.Username, buyerIn.Email, buyerIn.Role = "bob", "bob@example.com", "buyer"
	buyer, err := s.Register(ctx, buyerIn)
	require.NoError(t, err)

	d, err := s.SellerDetails(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sara Seller", d.FullName)
	assert.Equal(t, "sara@example.com", d.Email)

	_, err = s.SellerDetails(ctx, buyer.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.SellerDetails(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
