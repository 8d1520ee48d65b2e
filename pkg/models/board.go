package models

import "time"

// Board is a named, persisted flow owned by a user.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required,min=3"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"       validate:"required"`
	Flow        *Flow     `json:"flow"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
