package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	errors "github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/core/common/validation"
)

const (
	UsernameMinLength = 5
	UsernameMaxLength = 120
	EmailMinLength    = 6
	EmailMaxLength    = 120
	PasswordMinLength = 8
	PasswordMaxLength = 256

	passwordSymbols = "@$!%*?&"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+$`)
)

var registrationRules = validation.Schema{
	{
		Name:            FieldUsername,
		Required:        true,
		RequiredMessage: "Username is required.",
		Rules: []validation.Rule{
			validation.IsString("Username must be a string."),
			validation.Length(UsernameMinLength, UsernameMaxLength,
				fmt.Sprintf("Username must be between %d and %d characters.", UsernameMinLength, UsernameMaxLength)),
			validation.Matches(usernamePattern, "Username can only contain letters, numbers, and underscores."),
		},
	},
	{
		Name:            FieldEmail,
		Required:        true,
		RequiredMessage: "Email is required.",
		Rules: []validation.Rule{
			validation.IsString("Email must be a string."),
			validation.Length(EmailMinLength, EmailMaxLength,
				fmt.Sprintf("Email must be between %d and %d characters.", EmailMinLength, EmailMaxLength)),
			validation.Format(emailPattern, "Not a valid email address."),
		},
	},
	{
		Name:            FieldPassword,
		Required:        true,
		RequiredMessage: "Password is required.",
		Rules: []validation.Rule{
			validation.IsString("Password must be a string."),
			validation.Length(PasswordMinLength, PasswordMaxLength,
				fmt.Sprintf("Password must be between %d and %d characters.", PasswordMinLength, PasswordMaxLength)),
			validation.Predicate(errors.ErrCodeInvalidPattern,
				"Password must contain at least one uppercase letter, one lowercase letter, one number and one special character ("+passwordSymbols+").",
				isStrongPassword),
		},
	},
	{
		Name:            FieldRole,
		Required:        true,
		RequiredMessage: "Role is required.",
		Rules: []validation.Rule{
			validation.IsString("Role must be a string."),
			validation.OneOf("Role must be one of: "+strings.Join(RoleNames(), ", ")+".", func(s string) bool {
				_, ok := ParseRole(s)
				return ok
			}),
		},
	},
	{
		Name: FieldEmployeeID,
		Rules: []validation.Rule{
			validation.Integer("Employee id must be an integer."),
		},
	},
}

// isStrongPassword requires one character of each class and nothing outside them.
func isStrongPassword(s string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return upper && lower && digit && symbol
}

// ValidateRegistration checks every field and reports all violations at once.
// On success the payload is converted into a RegistrationDTO.
func ValidateRegistration(payload RegistrationPayload) (*RegistrationDTO, *errors.AppError) {
	if appErr := registrationRules.Validate(payload); appErr != nil {
		return nil, appErr
	}

	role, _ := ParseRole(payload[FieldRole].(string))
	dto := &RegistrationDTO{
		Username: payload[FieldUsername].(string),
		Email:    normaliseEmail(payload[FieldEmail].(string)),
		Password: payload[FieldPassword].(string),
		Role:     role,
	}
	if raw, ok := payload[FieldEmployeeID]; ok && raw != nil {
		id, _ := validation.AsInt64(raw)
		dto.EmployeeID = &id
	}
	return dto, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
