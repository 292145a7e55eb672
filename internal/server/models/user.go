// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash never leaves the server: it is excluded
// from JSON and from every task-bearing response.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the id + name projection embedded in tasks and user lists.
type PublicUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Public returns the public projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name}
}
