package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusBooker/internal/models"
	"campusBooker/internal/storage"
)

var (
	ErrUnauthenticated = errors.New("you need to log in to make a booking")
	ErrMalformedInput  = errors.New("malformed booking input")
)

type BookingSaver interface {
	SaveBooking(ctx context.Context, booking models.Booking) (int64, error)
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
}

type Service struct {
	log      *slog.Logger
	saver    BookingSaver
	provider UserProvider
}

func New(log *slog.Logger, saver BookingSaver, provider UserProvider) *Service {
	return &Service{
		log:      log,
		saver:    saver,
		provider: provider,
	}
}

type Input struct {
	Facility string
	Date     string
	Time     string
	Message  string
}

// Create stores a booking for the user named by username. Overlapping
// bookings for the same facility are not checked.
func (s *Service) Create(ctx context.Context, username string, in Input) (int64, error) {
	const op = "services.booking.Create"

	if username == "" {
		return 0, ErrUnauthenticated
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	user, err := s.provider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("session names an unknown user")
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	date, err := time.Parse(models.DateLayout, in.Date)
	if err != nil {
		return 0, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrMalformedInput, in.Date)
	}

	clock, err := time.Parse(models.TimeLayout, in.Time)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", ErrMalformedInput, in.Time)
	}

	id, err := s.saver.SaveBooking(ctx, models.Booking{
		UserID:   user.ID,
		Facility: in.Facility,
		Date:     date,
		Time:     clock,
		Message:  in.Message,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserReferenceFK) {
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("booking created",
		slog.Int64("id", id),
		slog.String("facility", in.Facility),
		slog.String("date", in.Date),
		slog.String("time", in.Time),
	)

	return id, nil
}
