package user

import "time"

// Payload field names.
const (
	FieldUsername   = "username"
	FieldEmail      = "email"
	FieldPassword   = "password"
	FieldRole       = "role"
	FieldEmployeeID = "employee_id"
)

// RegistrationPayload is the untyped request body as decoded from JSON.
type RegistrationPayload map[string]interface{}

// RegistrationDTO is an accepted, normalised registration.
type RegistrationDTO struct {
	Username   string
	Email      string
	Password   string
	Role       Role
	EmployeeID *int64
}

// UserResponse is the public summary of a user; it never carries credential data.
type UserResponse struct {
	PublicID    string     `json:"public_id"`
	Username    *string    `json:"username"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	EmployeeID  *int64     `json:"employee_id"`
	MemberSince time.Time  `json:"member_since"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

type UsersResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
