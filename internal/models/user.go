package models

import "time"

// User is an account. Username and email are each unique. ID is the hex
// ObjectID in MongoDB and the UUID primary key in PostgreSQL.
type User struct {
	ID        string    `json:"id"         bson:"_id,omitempty"`
	Username  string    `json:"username"   bson:"username"`
	Email     string    `json:"email"      bson:"email"`
	Password  string    `json:"-"          bson:"password"` // never serialize
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// RegisterRequest is the JSON body for POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /login. Identifier is a
// username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}
