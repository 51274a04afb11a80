package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UserPatch carries a partial profile update. Nil fields stay untouched.
type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
