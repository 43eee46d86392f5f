package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/domain/entities"
)

// MySQL error number for a duplicate entry on a unique index.
const duplicateEntryErrNo = 1062

// UserRepository implements port.UserRepository for MySQL.
type UserRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user and fills in its generated id. A violation of
// the unique email index is reported as apperrors.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.create_user")
	defer span.Finish()

	query := "INSERT INTO users (name, surname, birth_date, email) VALUES (?, ?, ?, ?)"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Surname, nullableTime(user.BirthDate), user.Email)
	duration := time.Since(startTime)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrEmailTaken, user.Email)
		}
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"user.email":      user.Email,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: User created with ID=%d [duration: %v]", user.ID, duration), logrus.Fields{
		"user.id":         user.ID,
		"sql.duration_ms": duration.Milliseconds(),
	})

	return nil
}

// FindByID finds a user by id, without the card list.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_user_by_id")
	defer span.Finish()

	query := "SELECT id, name, surname, birth_date, email FROM users WHERE id = ?"
	return r.findOne(ctx, query, id)
}

// FindByIDs returns every user whose id is in ids, ordered by id, without
// card lists. Unknown ids are skipped; zero matches yield an empty slice.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []int64) ([]entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_users_by_ids")
	defer span.Finish()

	if len(ids) == 0 {
		return []entities.User{}, nil
	}

	query := fmt.Sprintf("SELECT id, name, surname, birth_date, email FROM users WHERE id IN (%s) ORDER BY id", placeholders(len(ids)))

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []entities.User
	for rows.Next() {
		var (
			user      entities.User
			birthDate sql.NullTime
		)
		if err := rows.Scan(&user.ID, &user.Name, &user.Surname, &birthDate, &user.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if birthDate.Valid {
			user.BirthDate = birthDate.Time
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	r.logWithTrace(ctx, fmt.Sprintf("SQL result: Retrieved %d of %d requested users [duration: %v]", len(users), len(ids), duration), logrus.Fields{
		"users.count":     len(users),
		"sql.duration_ms": duration.Milliseconds(),
	})

	return users, nil
}

// FindByEmail finds a user by email, without the card list.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.find_user_by_email")
	defer span.Finish()

	query := "SELECT id, name, surname, birth_date, email FROM users WHERE email = ?"
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entities.User, error) {
	var (
		user      entities.User
		birthDate sql.NullTime
	)

	startTime := time.Now()
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Surname,
		&birthDate,
		&user.Email,
	)
	duration := time.Since(startTime)

	if err == sql.ErrNoRows {
		r.logWithTrace(ctx, fmt.Sprintf("SQL result: User not found [duration: %v]", duration), logrus.Fields{
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, apperrors.ErrUserNotFound
	}

	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if birthDate.Valid {
		user.BirthDate = birthDate.Time
	}
	return &user, nil
}

// Update persists the mutable user fields. A violation of the unique email
// index is reported as apperrors.ErrEmailTaken.
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.update_user")
	defer span.Finish()

	query := "UPDATE users SET name = ?, surname = ?, birth_date = ?, email = ? WHERE id = ?"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Surname, nullableTime(user.BirthDate), user.Email, user.ID)
	duration := time.Since(startTime)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrEmailTaken, user.Email)
		}
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"user.id":         user.ID,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// Delete removes the user row. Cards are removed by the cascading foreign
// key on card_info.user_id.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "mysql.delete_user")
	defer span.Finish()

	query := "DELETE FROM users WHERE id = ?"

	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, id)
	duration := time.Since(startTime)
	if err != nil {
		r.logErrorWithTrace(ctx, fmt.Sprintf("SQL Error: %s [duration: %v]", query, duration), err, logrus.Fields{
			"query":           query,
			"user.id":         id,
			"sql.duration_ms": duration.Milliseconds(),
		})
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// placeholders returns n comma-joined "?" markers for an IN clause.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args widens ids into the []any the database/sql API wants.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nullableTime maps the zero time to SQL NULL for the optional birth_date
// column.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo
}

// logWithTrace logs a message with trace information.
func (r *UserRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

// logErrorWithTrace logs an error with trace information.
func (r *UserRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}
