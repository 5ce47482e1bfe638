package user

import (
	"errors"
	"fmt"
	"time"

	userDatamodel "github.com/Lap-DevOps/Organizational-Chart/internal/core/datamodel/user"
	"github.com/Lap-DevOps/Organizational-Chart/internal/credential"
	"github.com/google/uuid"
)

// User is a registered principal. The password hash can only be written through
// SetPassword and is never part of any serialised form.
type User struct {
	ID          int64
	PublicID    uuid.UUID
	Username    *string
	Email       string
	Role        Role
	MemberSince time.Time
	LastUpdate  *time.Time
	LastLogin   *time.Time
	EmployeeID  *int64

	passwordHash string
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrEmptyPassword = errors.New("password must not be empty")
)

// NewUser builds an entity from an accepted registration. The plaintext password
// is hashed and dropped.
func NewUser(dto *RegistrationDTO, hasher credential.Hasher, now time.Time) (*User, error) {
	role := dto.Role
	if !role.IsValid() {
		role = DefaultRole
	}

	created := now.UTC()
	updated := created
	u := &User{
		PublicID:    uuid.New(),
		Email:       dto.Email,
		Role:        role,
		MemberSince: created,
		LastUpdate:  &updated,
		EmployeeID:  dto.EmployeeID,
	}
	if dto.Username != "" {
		username := dto.Username
		u.Username = &username
	}

	if err := u.SetPassword(hasher, dto.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash with one derived from plaintext.
func (u *User) SetPassword(hasher credential.Hasher, plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

func (u *User) VerifyPassword(hasher credential.Hasher, plaintext string) bool {
	return hasher.Verify(plaintext, u.passwordHash)
}

// PasswordHash exposes the derived hash for persistence only.
func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// TouchLogin records an authentication event.
func (u *User) TouchLogin(now time.Time) {
	t := now.UTC()
	u.LastLogin = &t
	u.LastUpdate = &t
}

func (u *User) String() string {
	return fmt.Sprintf("<User %s>", u.Email)
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		PublicID:    u.PublicID.String(),
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		EmployeeID:  u.EmployeeID,
		MemberSince: u.MemberSince,
		LastLogin:   u.LastLogin,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		PublicID:     u.PublicID.String(),
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role.String(),
		PasswordHash: u.passwordHash,
		MemberSince:  u.MemberSince,
		LastUpdate:   u.LastUpdate,
		LastLogin:    u.LastLogin,
		EmployeeID:   u.EmployeeID,
	}
}

func FromDataModel(u *userDatamodel.User) (*User, error) {
	publicID, err := uuid.Parse(u.PublicID)
	if err != nil {
		return nil, fmt.Errorf("user %d: invalid public_id %q: %w", u.ID, u.PublicID, err)
	}
	role, ok := ParseRole(u.Role)
	if !ok {
		return nil, fmt.Errorf("user %d: invalid role %q", u.ID, u.Role)
	}
	return &User{
		ID:           u.ID,
		PublicID:     publicID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         role,
		MemberSince:  u.MemberSince,
		LastUpdate:   u.LastUpdate,
		LastLogin:    u.LastLogin,
		EmployeeID:   u.EmployeeID,
		passwordHash: u.PasswordHash,
	}, nil
}
