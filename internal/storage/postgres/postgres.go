package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusBooker/internal/config"
	"campusBooker/internal/models"
	"campusBooker/internal/storage"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintUsername = "users_username_unique"
	constraintEmail    = "users_email_unique"
)

type Storage struct {
	DB *sql.DB
}

func InitDB(dbCfg *config.Database) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
	)

	return Open(connStr)
}

// Open connects with a lib/pq connection string or URL.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) SaveUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (username, school_id, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query, user.Username, user.SchoolID, user.Email, user.PasswordHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			switch pqErr.Constraint {
			case constraintUsername:
				return 0, fmt.Errorf("%s: %w", op, storage.ErrUsernameExists)
			case constraintEmail:
				return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
			}
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.postgres.UserByUsername"

	query := `
		SELECT id, username, school_id, email, password_hash, created_at
		FROM users
		WHERE username = $1`

	user, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT id, username, school_id, email, password_hash, created_at
		FROM users
		WHERE email = $1`

	user, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) SaveBooking(ctx context.Context, booking models.Booking) (int64, error) {
	const op = "storage.postgres.SaveBooking"

	query := `
		INSERT INTO bookings (user_id, facility, date, time, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		booking.UserID,
		booking.Facility,
		booking.Date.Format(models.DateLayout),
		booking.Time.Format(models.TimeLayout),
		booking.Message,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserReferenceFK)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.SchoolID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}
		return models.User{}, err
	}

	return user, nil
}
