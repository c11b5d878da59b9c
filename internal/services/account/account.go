package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campusBooker/internal/lib/logger/sl"
	"campusBooker/internal/lib/passwd"
	"campusBooker/internal/models"
	"campusBooker/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (int64, error)
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type Service struct {
	log          *slog.Logger
	saver        UserSaver
	provider     UserProvider
	passwordCost int
}

func New(log *slog.Logger, saver UserSaver, provider UserProvider, passwordCost int) *Service {
	return &Service{
		log:          log,
		saver:        saver,
		provider:     provider,
		passwordCost: passwordCost,
	}
}

type RegisterInput struct {
	Username        string
	SchoolID        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a user. Checks run in a fixed order and only the first
// failure is reported: username, then email, then password confirmation,
// then password length.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	const op = "services.account.Register"

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", in.Username),
	)

	_, err := s.provider.UserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return 0, ErrUsernameTaken
	case !errors.Is(err, storage.ErrUserNotFound):
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.provider.UserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return 0, ErrEmailTaken
	case !errors.Is(err, storage.ErrUserNotFound):
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if in.Password != in.ConfirmPassword {
		return 0, ErrPasswordMismatch
	}
	if len(in.Password) > passwd.MaxLength {
		return 0, ErrPasswordTooLong
	}

	hash, err := passwd.Hash(in.Password, s.passwordCost)
	if err != nil {
		if errors.Is(err, passwd.ErrPasswordTooLong) {
			return 0, ErrPasswordTooLong
		}
		return 0, fmt.Errorf("%s: hash password: %w", op, err)
	}

	id, err := s.saver.SaveUser(ctx, models.User{
		Username:     in.Username,
		SchoolID:     in.SchoolID,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		// A concurrent registration can win the race between the lookups
		// above and the insert.
		switch {
		case errors.Is(err, storage.ErrUsernameExists):
			log.Warn("username taken at insert", sl.Err(err))
			return 0, ErrUsernameTaken
		case errors.Is(err, storage.ErrEmailExists):
			log.Warn("email taken at insert", sl.Err(err))
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("id", id))

	return id, nil
}

// Login returns the user when the password matches. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	const op = "services.account.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	user, err := s.provider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("login failed: unknown user")
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !passwd.Verify(user.PasswordHash, password) {
		log.Info("login failed: wrong password")
		return models.User{}, ErrInvalidCredentials
	}

	log.Info("user logged in")

	return user, nil
}
