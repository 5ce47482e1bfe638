package auth

import (
	errors "github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).RequiredWithMessage("Email is required.").MaxLength(120)
	v.Field("password", d.Password).RequiredWithMessage("Password is required.").MaxLength(256)
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).RequiredWithMessage("Refresh token is required.")
	return v.Validate()
}
