package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is the closed set of identity classes. The zero value is not a valid role.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleHR
	RoleEmployee
	RoleGuest
)

const DefaultRole = RoleGuest

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleAdmin, RoleHR, RoleEmployee, RoleGuest}

var roleValues = map[Role]string{
	RoleAdmin:    "Admin",
	RoleHR:       "HR",
	RoleEmployee: "Employee",
	RoleGuest:    "Guest",
}

// roleKeys are the lower-case member names accepted from clients alongside the values.
var roleKeys = map[string]Role{
	"admin":    RoleAdmin,
	"HR":       RoleHR,
	"employee": RoleEmployee,
	"guest":    RoleGuest,
}

// ParseRole matches s case-sensitively against role values ("Guest") and member keys ("guest").
func ParseRole(s string) (Role, bool) {
	for r, v := range roleValues {
		if v == s {
			return r, true
		}
	}
	if r, ok := roleKeys[s]; ok {
		return r, true
	}
	return 0, false
}

// Elevated reports whether assigning r requires an Admin caller.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleHR
}

func (r Role) IsValid() bool {
	_, ok := roleValues[r]
	return ok
}

func (r Role) String() string {
	if v, ok := roleValues[r]; ok {
		return v
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("invalid role %q", s)
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("invalid role %q", s)
	}
	*r = parsed
	return nil
}

// RoleNames returns the canonical values, used in messages and the OpenAPI enum.
func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = r.String()
	}
	return names
}
