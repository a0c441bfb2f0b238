package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
	"github.com/iliyamo/ekharid/internal/utils"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password alike.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)

// RegisterInput carries a registration request.
type RegisterInput struct {
	FullName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string // defaults to buyer
}

// LoginResult is a verified user together with a fresh access token.
type LoginResult struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

// SellerDetails is the public profile of a seller.
type SellerDetails struct {
	FullName string
	Email    string
}

// AuthService registers and authenticates users.
type AuthService struct {
	Users        repository.UserStore
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
}

// NewAuthService wires an AuthService.
func NewAuthService(users repository.UserStore, jwtSecret string, accessTTLMin, bcryptCost int) *AuthService {
	return &AuthService{Users: users, JWTSecret: jwtSecret, AccessTTLMin: accessTTLMin, BcryptCost: bcryptCost}
}

// Register validates in, hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = model.RoleBuyer
	}

	switch {
	case in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "":
		return nil, fmt.Errorf("%w: fullName, username, email and password are required", model.ErrValidation)
	case !validEmail(in.Email):
		return nil, fmt.Errorf("%w: email is not valid", model.ErrValidation)
	case in.Password != in.ConfirmPassword:
		return nil, fmt.Errorf("%w: passwords do not match", model.ErrValidation)
	case !model.ValidRole(in.Role):
		return nil, fmt.Errorf("%w: role must be buyer or seller", model.ErrValidation)
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", model.ErrValidation)
	}
	u, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	tok, err := utils.NewAccessToken(s.JWTSecret, u.ID, u.Role, s.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &LoginResult{User: *u, Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

// SellerDetails returns the public profile of a seller.  Unknown ids and
// accounts that are not sellers are both reported as not found.
func (s *AuthService) SellerDetails(ctx context.Context, sellerID string) (*SellerDetails, error) {
	u, err := s.Users.UserByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleSeller {
		return nil, fmt.Errorf("seller %w", model.ErrNotFound)
	}
	return &SellerDetails{FullName: u.FullName, Email: u.Email}, nil
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
