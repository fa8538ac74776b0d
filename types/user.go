package types

import "time"

// User represents a registered account (a row of the signup table).
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Surname is the user's family name.
	Surname string `json:"surname" db:"surname"`

	// Firstname is the user's given name.
	Firstname string `json:"firstname" db:"firstname"`

	// Email is the user's login, unique across all users and compared
	// exactly as stored.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// CreatedAt is the timestamp when the user signed up.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
