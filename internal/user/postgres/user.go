package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userDatamodel "github.com/Lap-DevOps/Organizational-Chart/internal/core/datamodel/user"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the SQLSTATE postgres reports for unique constraint failures.
const uniqueViolation = "23505"

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

// Create inserts u and fills in its id. Uniqueness violations on any column are
// reported as user.ErrAlreadyExists, so concurrent duplicates yield exactly one row.
func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueConstraint(err); ok {
		return fmt.Errorf("%w: %s", user.ErrAlreadyExists, constraint)
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByPublicID(ctx context.Context, publicID string) (*userDatamodel.User, error) {
	return r.first(ctx, "public_id = ?", publicID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_login": at, "last_update": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// uniqueConstraint recognises unique violations from postgres (pgx) and sqlite and
// returns the constraint or column that was hit.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("UNIQUE constraint failed: "):]), true
	}
	if strings.Contains(strings.ToLower(msg), "duplicate key") {
		return "", true
	}
	return "", false
}
