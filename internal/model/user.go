package model

import "time"

// Roles a user can register with.  The role is fixed at registration and
// decides which route groups the user may call.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// User represents an account as stored by the user store.  The password is
// kept only as a bcrypt hash; handlers must never serialize this struct
// directly and should project it into a response type instead.
//
// Fields:
//  ID           – store identifier (hex ObjectID or numeric string).
//  FullName     – display name.
//  Username     – unique handle.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  Role         – RoleBuyer or RoleSeller.
//  CreatedAt    – registration timestamp.
type User struct {
	ID           string
	FullName     string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	return r == RoleBuyer || r == RoleSeller
}
