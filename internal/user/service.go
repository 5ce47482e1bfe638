package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/Lap-DevOps/Organizational-Chart/internal"
	userDatamodel "github.com/Lap-DevOps/Organizational-Chart/internal/core/datamodel/user"
	"github.com/Lap-DevOps/Organizational-Chart/internal/core/events"
	"github.com/Lap-DevOps/Organizational-Chart/internal/credential"
	"github.com/Lap-DevOps/Organizational-Chart/internal/metrics"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// RepositoryAPI is the user directory. Lookups return (nil, nil) when nothing matches;
// Create returns an error wrapping ErrAlreadyExists on a uniqueness violation.
type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByPublicID(ctx context.Context, publicID string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type Service struct {
	repo      RepositoryAPI
	hasher    credential.Hasher
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, hasher credential.Hasher, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register validates payload, builds the user and persists it. Validation failures,
// duplicates and credential failures come back as distinct *AppError values.
func (s *Service) Register(ctx context.Context, payload RegistrationPayload) (*User, error) {
	dto, appErr := ValidateRegistration(payload)
	if appErr != nil {
		metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonValidation).Inc()
		s.logger.InfoContext(ctx, "registration rejected", "fields", fieldsOf(appErr))
		return nil, appErr
	}

	if err := s.ensureUnique(ctx, dto); err != nil {
		return nil, err
	}

	u, err := NewUser(dto, s.hasher, s.now())
	if err != nil {
		metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonInternal).Inc()
		s.logger.ErrorContext(ctx, "failed to derive password hash", "error", err)
		return nil, apperrors.ErrCredentialFailure.WithCause(err)
	}

	model := ToDataModel(u)
	if err := s.repo.Create(ctx, model); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonAlreadyExists).Inc()
			return nil, apperrors.ErrUserAlreadyExists.WithCause(err)
		}
		metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonInternal).Inc()
		s.logger.ErrorContext(ctx, "failed to persist user", "error", err)
		return nil, apperrors.NewInternalError("failed to register user", err)
	}
	u.ID = model.ID

	metrics.UsersRegisteredTotal.WithLabelValues(u.Role.String()).Inc()
	s.logger.InfoContext(ctx, "user registered", "public_id", u.PublicID.String(), "role", u.Role.String())
	s.publish(ctx, events.NewUserRegisteredEvent(u.PublicID.String(), u.Email, u.Role.String()))

	return u, nil
}

// ensureUnique gives a precise message for the common case. The storage constraint
// still decides races between concurrent registrations.
func (s *Service) ensureUnique(ctx context.Context, dto *RegistrationDTO) error {
	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return apperrors.NewInternalError("failed to check email uniqueness", err)
	}
	if existing != nil {
		metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonAlreadyExists).Inc()
		return apperrors.ErrUserAlreadyExists.WithMessage("A user with this email already exists").
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: FieldEmail, Code: string(apperrors.ErrCodeUserAlreadyExists), Message: "Email is already registered."},
			}})
	}

	if dto.Username == "" {
		return nil
	}
	existing, err = s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return apperrors.NewInternalError("failed to check username uniqueness", err)
	}
	if existing != nil {
		metrics.RegistrationRejectedTotal.WithLabelValues(metrics.ReasonAlreadyExists).Inc()
		return apperrors.ErrUserAlreadyExists.WithMessage("A user with this username already exists").
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: FieldUsername, Code: string(apperrors.ErrCodeUserAlreadyExists), Message: "Username is already taken."},
			}})
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	model, err := s.repo.GetByID(ctx, id)
	return s.fromLookup(model, err)
}

func (s *Service) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*User, error) {
	model, err := s.repo.GetByPublicID(ctx, publicID.String())
	return s.fromLookup(model, err)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	model, err := s.repo.GetByEmail(ctx, email)
	return s.fromLookup(model, err)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	model, err := s.repo.GetByUsername(ctx, username)
	return s.fromLookup(model, err)
}

func (s *Service) fromLookup(model *userDatamodel.User, err error) (*User, error) {
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if model == nil {
		return nil, apperrors.ErrUserNotFound
	}
	u, err := FromDataModel(model)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	return u, nil
}

// List pages through users ordered by id. Limits are clamped to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	limit, offset = ClampPage(limit, offset)

	models, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(models))
	for _, m := range models {
		u, err := FromDataModel(m)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to list users", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Authenticate checks email and password and records the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, normaliseEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.VerifyPassword(s.hasher, password) {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
		s.logger.InfoContext(ctx, "login rejected", "public_id", u.PublicID.String())
		return nil, apperrors.ErrInvalidCredentials
	}

	u.TouchLogin(s.now())
	if err := s.repo.UpdateLastLogin(ctx, u.ID, *u.LastLogin); err != nil {
		return nil, apperrors.NewInternalError("failed to record login", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginSuccess).Inc()
	s.publish(ctx, events.NewUserLoggedInEvent(u.PublicID.String(), u.Email))
	return u, nil
}

// ClampPage bounds paging parameters to [1, MaxListLimit] and a non-negative offset.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func fieldsOf(appErr *apperrors.AppError) []string {
	if details, ok := appErr.Details.(apperrors.ValidationErrors); ok {
		return details.Fields()
	}
	return nil
}
