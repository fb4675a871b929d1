package models

import "time"

// User is the slice of the user table the ledger needs for history
// projections. Profile management itself lives outside this core.
type User struct {
	ID      string    `json:"id" db:"id"`
	Name    string    `json:"name" db:"name"`
	Email   string    `json:"email" db:"email"`
	Profile string    `json:"profile,omitempty" db:"profile"` // JSON text
	Created time.Time `json:"created" db:"created"`
}
