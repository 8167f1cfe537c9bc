package domain

import "time"

// User is the minimal account record the auth core needs: an opaque subject
// id plus credentials. Anything beyond identity lives outside this service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
