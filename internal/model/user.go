// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// The internal ID is an xid string (20 chars, URL-safe, time-sortable),
// consistent with Snippet IDs.
//
// WHY IS PasswordHash TAGGED json:"-"?
// The `json:"-"` tag tells encoding/json to NEVER serialize this field.
// Even if a handler accidentally returns a *model.User directly, the bcrypt
// hash can't leak into a response body. The protection lives at the type
// level instead of relying on every handler to strip the field.
//
// Email is UNIQUE in the database — it is the login identifier. Both email
// and ID are immutable after registration.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the externally visible shape of a user.
//
// Auth endpoints return {token, user:{id, username}} — clients never see
// another user's email, let alone a password hash.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Public converts a full User record to its externally visible form.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
	}
}
