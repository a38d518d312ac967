package models

import "time"

// User represents a row in the PostgreSQL users table. Username is the
// display identity; Login is the separate identity the user authenticates
// with. Username, Login, and Email are each globally unique.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialize
	CreatedAt time.Time `json:"created_at"`
}

// RegisterForm is the POST /register form body.
type RegisterForm struct {
	Username string
	Login    string
	Password string
	Email    string
}

// LoginForm is the POST /login form body.
type LoginForm struct {
	Login    string
	Password string
}
