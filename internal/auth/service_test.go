package auth_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/auth"
	"github.com/Lap-DevOps/Organizational-Chart/internal/credential"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/google/uuid"
)

const (
	accessSecret  = "access-secret-access-secret-0123456789"
	refreshSecret = "refresh-secret-refresh-secret-0123456789"
)

// Mock user service for testing
type mockUsers struct {
	users    map[string]*user.User
	password string
	err      error
}

func newMockUsers() *mockUsers {
	hasher, err := credential.NewBcryptHasher(4)
	Expect(err).NotTo(HaveOccurred())

	u, err := user.NewUser(&user.RegistrationDTO{
		Username: "jon_doe",
		Email:    "john.doe@example.com",
		Password: "Abcd1234!",
		Role:     user.RoleHR,
	}, hasher, time.Now())
	Expect(err).NotTo(HaveOccurred())
	u.ID = 7

	return &mockUsers{
		users:    map[string]*user.User{u.Email: u},
		password: "Abcd1234!",
	}
}

func (m *mockUsers) only() *user.User {
	for _, u := range m.users {
		return u
	}
	return nil
}

func (m *mockUsers) Authenticate(_ context.Context, email, password string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[strings.ToLower(email)]
	if !ok || password != m.password {
		return nil, internal.ErrInvalidCredentials
	}
	return u, nil
}

func (m *mockUsers) GetByPublicID(_ context.Context, publicID uuid.UUID) (*user.User, error) {
	for _, u := range m.users {
		if u.PublicID == publicID {
			return u, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

var _ = Describe("JWTTokenGenerator", func() {
	var (
		gen *auth.JWTTokenGenerator
		u   *user.User
	)

	BeforeEach(func() {
		gen = auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		u = newMockUsers().only()
	})

	It("should carry the user's identity in access tokens", func() {
		token, err := gen.Generate(u, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())

		claims, err := gen.Validate(token, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(7)))
		Expect(claims.PublicID).To(Equal(u.PublicID.String()))
		Expect(claims.Subject).To(Equal(u.PublicID.String()))
		Expect(claims.Email).To(Equal("john.doe@example.com"))
		Expect(claims.Role).To(Equal("HR"))
		Expect(claims.Issuer).To(Equal("orgchart"))

		principal := claims.Principal()
		Expect(principal.ID).To(Equal(int64(7)))
		Expect(principal.Role).To(Equal("HR"))
	})

	It("should refuse a refresh token where an access token is expected", func() {
		token, err := gen.Generate(u, auth.RefreshToken)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.Validate(token, auth.AccessToken)
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("should refuse an access token where a refresh token is expected", func() {
		token, err := gen.Generate(u, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.Validate(token, auth.RefreshToken)
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("should refuse tokens signed with another secret", func() {
		other := auth.NewJWTTokenGenerator("another-access-secret-0123456789abcdef", refreshSecret, time.Minute, time.Hour)
		token, err := other.Generate(u, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.Validate(token, auth.AccessToken)
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("should report expired tokens distinctly", func() {
		expired := auth.NewJWTTokenGenerator(accessSecret, refreshSecret, -time.Minute, time.Hour)
		token, err := expired.Generate(u, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.Validate(token, auth.AccessToken)
		Expect(errors.Is(err, internal.ErrTokenExpired)).To(BeTrue())
	})

	It("should refuse garbage", func() {
		_, err := gen.Validate("not.a.token", auth.AccessToken)
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("should expose per-type lifetimes", func() {
		Expect(gen.TTL(auth.AccessToken)).To(Equal(15 * time.Minute))
		Expect(gen.TTL(auth.RefreshToken)).To(Equal(24 * time.Hour))
	})
})

var _ = Describe("Auth Service", func() {
	var (
		ctx     context.Context
		users   *mockUsers
		service *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = newMockUsers()
		gen := auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		service = auth.NewService(users, gen, nil)
	})

	Describe("Authenticate", func() {
		It("should issue a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Abcd1234!"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
			Expect(tokens.TokenType).To(Equal("Bearer"))
			Expect(tokens.ExpiresIn).To(Equal(int64(900)))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Email).To(Equal("john.doe@example.com"))
		})

		It("should reject invalid credentials", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Wrong1234!"})
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("should validate the request before calling the user service", func() {
			users.err = errors.New("must not be called")

			_, err := service.Authenticate(ctx, auth.LoginDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(Equal([]string{"email", "password"}))
		})

		It("should pass through user service failures", func() {
			users.err = internal.NewInternalError("database down", nil)

			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Abcd1234!"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
		})
	})

	Describe("RefreshTokens", func() {
		It("should exchange a refresh token for a new pair", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Abcd1234!"})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ValidateAccessToken(refreshed.AccessToken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should refuse an access token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Abcd1234!"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})

		It("should refuse tokens of users that no longer exist", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Email: "john.doe@example.com", Password: "Abcd1234!"})
			Expect(err).NotTo(HaveOccurred())

			users.users = map[string]*user.User{}
			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})
	})
})
