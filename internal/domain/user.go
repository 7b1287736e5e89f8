package domain

import "errors"

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
