// Package memory is a map-backed store with the same constraints as the
// Postgres schema. Tests use it in place of a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusBooker/internal/models"
	"campusBooker/internal/storage"
)

type Storage struct {
	mu            sync.Mutex
	users         map[int64]models.User
	usersByName   map[string]int64
	usersByEmail  map[string]int64
	bookings      map[int64]models.Booking
	nextUserID    int64
	nextBookingID int64
}

func New() *Storage {
	return &Storage{
		users:        make(map[int64]models.User),
		usersByName:  make(map[string]int64),
		usersByEmail: make(map[string]int64),
		bookings:     make(map[int64]models.Booking),
	}
}

func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) SaveUser(_ context.Context, user models.User) (int64, error) {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[user.Username]; ok {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrUsernameExists)
	}
	if _, ok := s.usersByEmail[user.Email]; ok {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now().UTC()

	s.users[user.ID] = user
	s.usersByName[user.Username] = user.ID
	s.usersByEmail[user.Email] = user.ID

	return user.ID, nil
}

func (s *Storage) UserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByName[username]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) SaveBooking(_ context.Context, booking models.Booking) (int64, error) {
	const op = "storage.memory.SaveBooking"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[booking.UserID]; !ok {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrUserReferenceFK)
	}

	s.nextBookingID++
	booking.ID = s.nextBookingID
	booking.CreatedAt = time.Now().UTC()
	s.bookings[booking.ID] = booking

	return booking.ID, nil
}

// Bookings returns a copy of every stored booking ordered by id.
func (s *Storage) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Booking, 0, len(s.bookings))
	for id := int64(1); id <= s.nextBookingID; id++ {
		if b, ok := s.bookings[id]; ok {
			out = append(out, b)
		}
	}

	return out
}

// UserCount reports how many users are stored.
func (s *Storage) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}
