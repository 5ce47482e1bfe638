package user_test

import (
	"encoding/json"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
)

func validPayload() user.RegistrationPayload {
	return user.RegistrationPayload{
		"username":    "jon_doe",
		"email":       "john.doe@example.com",
		"password":    "Abcd1234!",
		"role":        "guest",
		"employee_id": 123,
	}
}

func fieldErrors(appErr *internal.AppError, field string) []internal.ValidationError {
	Expect(appErr).NotTo(BeNil())
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.ForField(field)
}

func codesFor(appErr *internal.AppError, field string) []string {
	var codes []string
	for _, e := range fieldErrors(appErr, field) {
		codes = append(codes, e.Code)
	}
	return codes
}

var _ = Describe("ValidateRegistration", func() {
	It("accepts the canonical example and normalises it", func() {
		dto, appErr := user.ValidateRegistration(validPayload())
		Expect(appErr).To(BeNil())
		Expect(dto.Username).To(Equal("jon_doe"))
		Expect(dto.Email).To(Equal("john.doe@example.com"))
		Expect(dto.Role).To(Equal(user.RoleGuest))
		Expect(dto.EmployeeID).NotTo(BeNil())
		Expect(*dto.EmployeeID).To(Equal(int64(123)))
	})

	It("lower-cases the email", func() {
		payload := validPayload()
		payload["email"] = "John.Doe@Example.COM"

		dto, appErr := user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
		Expect(dto.Email).To(Equal("john.doe@example.com"))
	})

	It("reports every missing field at once", func() {
		payload := user.RegistrationPayload{
			"email":       "john.doe@example.com",
			"role":        "guest",
			"employee_id": 123,
		}

		_, appErr := user.ValidateRegistration(payload)
		Expect(appErr.StatusCode).To(Equal(400))
		Expect(appErr.Message).To(Equal("Input payload validation failed"))
		Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(ConsistOf("username", "password"))
		Expect(codesFor(appErr, "username")).To(Equal([]string{"REQUIRED"}))
		Expect(codesFor(appErr, "password")).To(Equal([]string{"REQUIRED"}))
	})

	DescribeTable("rejects a payload missing a required field",
		func(field string) {
			payload := validPayload()
			delete(payload, field)

			_, appErr := user.ValidateRegistration(payload)
			Expect(codesFor(appErr, field)).To(Equal([]string{"REQUIRED"}))
		},
		Entry("username", "username"),
		Entry("email", "email"),
		Entry("password", "password"),
		Entry("role", "role"),
	)

	It("treats null as missing", func() {
		payload := validPayload()
		payload["username"] = nil

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "username")).To(Equal([]string{"REQUIRED"}))
	})

	It("treats an empty string as present", func() {
		payload := validPayload()
		payload["username"] = ""

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "username")).To(ConsistOf("INVALID_LENGTH", "INVALID_PATTERN"))
	})

	DescribeTable("rejects usernames outside the pattern",
		func(username string) {
			payload := validPayload()
			payload["username"] = username

			_, appErr := user.ValidateRegistration(payload)
			Expect(codesFor(appErr, "username")).To(Equal([]string{"INVALID_PATTERN"}))
			Expect(fieldErrors(appErr, "username")[0].Message).To(Equal("Username can only contain letters, numbers, and underscores."))
		},
		Entry("space", "jon doe"),
		Entry("hyphen", "jon-doe"),
		Entry("at sign", "jon@doe"),
	)

	DescribeTable("rejects usernames outside the length bounds",
		func(username string) {
			payload := validPayload()
			payload["username"] = username

			_, appErr := user.ValidateRegistration(payload)
			Expect(codesFor(appErr, "username")).To(Equal([]string{"INVALID_LENGTH"}))
			Expect(fieldErrors(appErr, "username")[0].Message).To(Equal("Username must be between 5 and 120 characters."))
		},
		Entry("too short", "aq"),
		Entry("one below minimum", "abcd"),
		Entry("too long", strings.Repeat("a", 121)),
	)

	DescribeTable("accepts usernames at the length bounds",
		func(username string) {
			payload := validPayload()
			payload["username"] = username

			_, appErr := user.ValidateRegistration(payload)
			Expect(appErr).To(BeNil())
		},
		Entry("minimum", "abcde"),
		Entry("maximum", strings.Repeat("a", 120)),
	)

	DescribeTable("rejects malformed emails",
		func(email string) {
			payload := validPayload()
			payload["email"] = email

			_, appErr := user.ValidateRegistration(payload)
			Expect(codesFor(appErr, "email")).To(ContainElement("INVALID_FORMAT"))
		},
		Entry("empty domain label", "invalid@.com"),
		Entry("empty local part", "@invalid.com"),
		Entry("double dots in domain", "john..doe@example..com"),
		Entry("no at sign", "john.doe.example.com"),
		Entry("no top level domain", "john@example"),
	)

	It("rejects an email that is too long", func() {
		payload := validPayload()
		payload["email"] = strings.Repeat("a", 110) + "@example.com"

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "email")).To(Equal([]string{"INVALID_LENGTH"}))
	})

	DescribeTable("rejects weak passwords",
		func(password, code string) {
			payload := validPayload()
			payload["password"] = password

			_, appErr := user.ValidateRegistration(payload)
			Expect(codesFor(appErr, "password")).To(Equal([]string{code}))
		},
		Entry("too short", "Ab1!", "INVALID_LENGTH"),
		Entry("no upper case", "abcd1234!", "INVALID_PATTERN"),
		Entry("no lower case", "ABCD1234!", "INVALID_PATTERN"),
		Entry("no digit", "Abcdefgh!", "INVALID_PATTERN"),
		Entry("no symbol", "Abcd12345", "INVALID_PATTERN"),
		Entry("unsupported symbol", "Abcd1234!#", "INVALID_PATTERN"),
		Entry("non-ascii", "Abcd1234!é", "INVALID_PATTERN"),
		Entry("too long", "Ab1!"+strings.Repeat("a", 253), "INVALID_LENGTH"),
	)

	It("accepts a 256 character password", func() {
		payload := validPayload()
		payload["password"] = "Ab1!" + strings.Repeat("a", 252)

		_, appErr := user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
	})

	It("rejects unknown roles citing the enum rule", func() {
		payload := validPayload()
		payload["role"] = "invalid_role"

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "role")).To(Equal([]string{"INVALID_ENUM"}))
		Expect(fieldErrors(appErr, "role")[0].Message).To(Equal("Role must be one of: Admin, HR, Employee, Guest."))
	})

	DescribeTable("accepts every valid role",
		func(role string, expected user.Role) {
			payload := validPayload()
			payload["role"] = role

			dto, appErr := user.ValidateRegistration(payload)
			Expect(appErr).To(BeNil())
			Expect(dto.Role).To(Equal(expected))
		},
		Entry("Admin", "Admin", user.RoleAdmin),
		Entry("HR", "HR", user.RoleHR),
		Entry("Employee", "Employee", user.RoleEmployee),
		Entry("Guest", "Guest", user.RoleGuest),
	)

	It("reports only the type rule for non-string values", func() {
		payload := validPayload()
		payload["username"] = 12345
		payload["role"] = true

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "username")).To(Equal([]string{"INVALID_TYPE"}))
		Expect(codesFor(appErr, "role")).To(Equal([]string{"INVALID_TYPE"}))
	})

	It("treats employee_id as optional", func() {
		payload := validPayload()
		delete(payload, "employee_id")

		dto, appErr := user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
		Expect(dto.EmployeeID).To(BeNil())

		payload["employee_id"] = nil
		dto, appErr = user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
		Expect(dto.EmployeeID).To(BeNil())
	})

	It("accepts employee_id decoded as json.Number", func() {
		payload := validPayload()
		payload["employee_id"] = json.Number("77")

		dto, appErr := user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
		Expect(*dto.EmployeeID).To(Equal(int64(77)))
	})

	It("rejects a non-integer employee_id", func() {
		payload := validPayload()
		payload["employee_id"] = "123"

		_, appErr := user.ValidateRegistration(payload)
		Expect(codesFor(appErr, "employee_id")).To(Equal([]string{"INVALID_TYPE"}))
	})

	It("rejects an employee_id float that overflows int64", func() {
		payload := validPayload()
		payload["employee_id"] = float64(math.MaxInt64)

		dto, appErr := user.ValidateRegistration(payload)
		Expect(dto).To(BeNil())
		Expect(codesFor(appErr, "employee_id")).To(Equal([]string{"INVALID_TYPE"}))
	})

	It("ignores unknown fields", func() {
		payload := validPayload()
		payload["nickname"] = "jd"

		_, appErr := user.ValidateRegistration(payload)
		Expect(appErr).To(BeNil())
	})

	It("collects violations across several fields", func() {
		payload := user.RegistrationPayload{
			"username": "aq",
			"email":    "invalid@.com",
			"password": "short",
			"role":     "invalid_role",
		}

		_, appErr := user.ValidateRegistration(payload)
		Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(Equal([]string{"username", "email", "password", "role"}))
	})
})
