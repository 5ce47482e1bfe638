package user_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	userDatamodel "github.com/Lap-DevOps/Organizational-Chart/internal/core/datamodel/user"
	"github.com/Lap-DevOps/Organizational-Chart/internal/core/events"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/google/uuid"
)

// Mock repository for testing
type mockUserRepository struct {
	mu          sync.Mutex
	users       map[int64]*userDatamodel.User
	nextID      int64
	blindLookup bool
	createError error
	getError    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  make(map[int64]*userDatamodel.User),
		nextID: 1,
	}
}

func (m *mockUserRepository) Create(_ context.Context, u *userDatamodel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: uq__users__email", user.ErrAlreadyExists)
		}
		if existing.Username != nil && u.Username != nil && *existing.Username == *u.Username {
			return fmt.Errorf("%w: uq__users__username", user.ErrAlreadyExists)
		}
	}
	u.ID = m.nextID
	m.nextID++
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockUserRepository) find(match func(*userDatamodel.User) bool) (*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, u := range m.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.ID == id })
}

func (m *mockUserRepository) GetByPublicID(_ context.Context, publicID string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.PublicID == publicID })
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*userDatamodel.User, error) {
	if m.blindLookup {
		return nil, nil
	}
	return m.find(func(u *userDatamodel.User) bool { return u.Email == email })
}

func (m *mockUserRepository) GetByUsername(_ context.Context, username string) (*userDatamodel.User, error) {
	if m.blindLookup {
		return nil, nil
	}
	return m.find(func(u *userDatamodel.User) bool { return u.Username != nil && *u.Username == username })
}

func (m *mockUserRepository) List(_ context.Context, limit, offset int) ([]*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*userDatamodel.User
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *mockUserRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLogin = &at
	u.LastUpdate = &at
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var _ = Describe("User Service", func() {
	var (
		ctx       context.Context
		repo      *mockUserRepository
		publisher *recordingPublisher
		service   *user.Service
		fixedNow  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		publisher = &recordingPublisher{}
		fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = user.NewService(repo, newTestHasher(), publisher, logger).
			WithClock(func() time.Time { return fixedNow })
	})

	Describe("Register", func() {
		It("persists a valid registration", func() {
			u, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal(int64(1)))
			Expect(u.Role).To(Equal(user.RoleGuest))
			Expect(u.MemberSince).To(Equal(fixedNow))

			stored, err := repo.GetByEmail(ctx, "john.doe@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).NotTo(BeEmpty())
			Expect(stored.PasswordHash).NotTo(Equal("Abcd1234!"))
			Expect(*stored.EmployeeID).To(Equal(int64(123)))
			Expect(publisher.types()).To(Equal([]string{events.UserRegisteredEvent}))
		})

		It("returns validation failures without touching storage", func() {
			payload := validPayload()
			delete(payload, "password")

			_, err := service.Register(ctx, payload)
			Expect(errors.Is(err, internal.NewValidationError("", internal.ErrCodeValidationFailed))).To(BeTrue())
			Expect(repo.users).To(BeEmpty())
			Expect(publisher.types()).To(BeEmpty())
		})

		It("rejects a second registration with the same email", func() {
			_, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())

			payload := validPayload()
			payload["username"] = "someone_else"
			payload["role"] = "Admin"
			_, err = service.Register(ctx, payload)
			Expect(errors.Is(err, internal.ErrUserAlreadyExists)).To(BeTrue())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(Equal([]string{"email"}))
		})

		It("matches duplicate emails case-insensitively", func() {
			_, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())

			payload := validPayload()
			payload["username"] = "someone_else"
			payload["email"] = "JOHN.DOE@example.com"
			_, err = service.Register(ctx, payload)
			Expect(errors.Is(err, internal.ErrUserAlreadyExists)).To(BeTrue())
		})

		It("rejects a second registration with the same username", func() {
			_, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())

			payload := validPayload()
			payload["email"] = "other@example.com"
			_, err = service.Register(ctx, payload)
			Expect(errors.Is(err, internal.ErrUserAlreadyExists)).To(BeTrue())

			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(Equal([]string{"username"}))
		})

		It("maps a storage uniqueness violation to already exists", func() {
			_, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())

			repo.blindLookup = true
			_, err = service.Register(ctx, validPayload())
			Expect(errors.Is(err, internal.ErrUserAlreadyExists)).To(BeTrue())
			Expect(errors.Is(err, user.ErrAlreadyExists)).To(BeTrue())
		})

		It("reports a credential failure as an internal error", func() {
			service = user.NewService(repo, failingHasher{}, publisher, nil)

			_, err := service.Register(ctx, validPayload())
			Expect(errors.Is(err, internal.ErrCredentialFailure)).To(BeTrue())

			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(repo.users).To(BeEmpty())
		})

		It("wraps other storage failures", func() {
			repo.createError = errors.New("connection reset")

			_, err := service.Register(ctx, validPayload())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
			Expect(errors.Unwrap(err)).To(MatchError("connection reset"))
		})

		It("lets exactly one of several concurrent duplicates through", func() {
			repo.blindLookup = true

			const attempts = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					_, err := service.Register(ctx, validPayload())
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case errors.Is(err, internal.ErrUserAlreadyExists):
						conflicts++
					}
				}()
			}
			wg.Wait()

			Expect(successes).To(Equal(1))
			Expect(conflicts).To(Equal(attempts - 1))
			Expect(repo.users).To(HaveLen(1))
		})
	})

	Describe("lookups", func() {
		var registered *user.User

		BeforeEach(func() {
			var err error
			registered, err = service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds users by id, public id, email and username", func() {
			byID, err := service.GetByID(ctx, registered.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.PublicID).To(Equal(registered.PublicID))

			byPublicID, err := service.GetByPublicID(ctx, registered.PublicID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byPublicID.ID).To(Equal(registered.ID))

			byEmail, err := service.GetByEmail(ctx, "john.doe@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(registered.ID))

			byUsername, err := service.GetByUsername(ctx, "jon_doe")
			Expect(err).NotTo(HaveOccurred())
			Expect(byUsername.ID).To(Equal(registered.ID))
		})

		It("reports missing users as not found", func() {
			_, err := service.GetByID(ctx, 999)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())

			_, err = service.GetByPublicID(ctx, uuid.New())
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})

		It("wraps storage errors", func() {
			repo.getError = errors.New("boom")
			_, err := service.GetByID(ctx, registered.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i := 0; i < 3; i++ {
				payload := validPayload()
				payload["username"] = fmt.Sprintf("member_%d", i)
				payload["email"] = fmt.Sprintf("member%d@example.com", i)
				_, err := service.Register(ctx, payload)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("pages through users in id order", func() {
			users, err := service.List(ctx, 2, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(*users[0].Username).To(Equal("member_1"))
			Expect(*users[1].Username).To(Equal("member_2"))
		})

		It("clamps the limit", func() {
			users, err := service.List(ctx, 0, -5)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(3))
		})
	})

	DescribeTable("ClampPage",
		func(limit, offset, wantLimit, wantOffset int) {
			l, o := user.ClampPage(limit, offset)
			Expect(l).To(Equal(wantLimit))
			Expect(o).To(Equal(wantOffset))
		},
		Entry("defaults", 0, 0, user.DefaultListLimit, 0),
		Entry("caps", 1000, 10, user.MaxListLimit, 10),
		Entry("negative offset", 10, -1, 10, 0),
	)

	Describe("Authenticate", func() {
		BeforeEach(func() {
			_, err := service.Register(ctx, validPayload())
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts the right password and records the login", func() {
			u, err := service.Authenticate(ctx, " John.Doe@example.com ", "Abcd1234!")
			Expect(err).NotTo(HaveOccurred())
			Expect(*u.LastLogin).To(Equal(fixedNow))

			stored, _ := repo.GetByID(ctx, u.ID)
			Expect(*stored.LastLogin).To(Equal(fixedNow))
			Expect(publisher.types()).To(Equal([]string{events.UserRegisteredEvent, events.UserLoggedInEvent}))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, "john.doe@example.com", "Wrong1234!")
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})

		It("does not reveal unknown emails", func() {
			_, err := service.Authenticate(ctx, "nobody@example.com", "Abcd1234!")
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeTrue())
		})
	})
})
