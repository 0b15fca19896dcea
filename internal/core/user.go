package core

import "time"

// User is an account owner. Password hashes never leave the storage layer.
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
