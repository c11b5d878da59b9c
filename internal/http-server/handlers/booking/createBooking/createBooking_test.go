package createBooking

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"campusBooker/internal/config"
	"campusBooker/internal/http-server/handlers/booking/createBooking/mocks"
	"campusBooker/internal/http-server/middleware/mwauth"
	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/logger/handlers/slogdiscard"
	"campusBooker/internal/services/booking"
	"campusBooker/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T) (*session.Manager, *views.Renderer) {
	t.Helper()

	sessions := session.NewManager(config.Auth{
		Secret:     "0123456789abcdef0123456789abcdef",
		Issuer:     "test",
		SessionTTL: time.Hour,
		FlashTTL:   time.Minute,
	})
	pages, err := views.New()
	require.NoError(t, err)

	return sessions, pages
}

func gymForm() url.Values {
	return url.Values{
		"facility": {"Gym"},
		"date":     {"2024-05-01"},
		"time":     {"14:30"},
		"message":  {"team practice"},
	}
}

var gymInput = booking.Input{
	Facility: "Gym",
	Date:     "2024-05-01",
	Time:     "14:30",
	Message:  "team practice",
}

func newRequest(form url.Values, username string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/booking", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if username != "" {
		req = req.WithContext(session.WithUser(req.Context(), username))
	}
	return req
}

func TestCreateBookingHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	testCases := []struct {
		name           string
		username       string
		form           func() url.Values
		mockSetup      func(m *mocks.BookingCreator)
		expectedStatus int
		expectedBody   []string
		location       string
	}{
		{
			name:     "Success",
			username: "alice",
			form:     gymForm,
			mockSetup: func(m *mocks.BookingCreator) {
				m.On("Create", mock.Anything, "alice", gymInput).Return(int64(1), nil)
			},
			expectedStatus: http.StatusSeeOther,
			location:       "/",
		},
		{
			name:     "No session",
			username: "",
			form:     gymForm,
			mockSetup: func(m *mocks.BookingCreator) {
				m.On("Create", mock.Anything, "", gymInput).Return(int64(0), booking.ErrUnauthenticated)
			},
			expectedStatus: http.StatusSeeOther,
			location:       mwauth.LoginPath,
		},
		{
			name:     "Malformed date",
			username: "alice",
			form: func() url.Values {
				f := gymForm()
				f.Set("date", "May 1st")
				return f
			},
			mockSetup: func(m *mocks.BookingCreator) {
				in := gymInput
				in.Date = "May 1st"
				m.On("Create", mock.Anything, "alice", in).
					Return(int64(0), fmt.Errorf("%w: date", booking.ErrMalformedInput))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"Invalid date or time", `value="Gym"`},
		},
		{
			name:     "Missing facility",
			username: "alice",
			form: func() url.Values {
				f := gymForm()
				f.Del("facility")
				return f
			},
			mockSetup:      func(m *mocks.BookingCreator) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"field Facility is a required field"},
		},
		{
			name:     "Missing message",
			username: "alice",
			form: func() url.Values {
				f := gymForm()
				f.Set("message", "")
				return f
			},
			mockSetup:      func(m *mocks.BookingCreator) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"field Message is a required field"},
		},
		{
			name:     "Internal server error",
			username: "alice",
			form:     gymForm,
			mockSetup: func(m *mocks.BookingCreator) {
				m.On("Create", mock.Anything, "alice", gymInput).Return(int64(0), errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   []string{"internal server error"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sessions, pages := newDeps(t)
			mockCreator := mocks.NewBookingCreator(t)
			tc.mockSetup(mockCreator)

			handler := New(logger, mockCreator, sessions, pages)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequest(tc.form(), tc.username))

			assert.Equal(t, tc.expectedStatus, rr.Code, "Status code mismatch")
			for _, s := range tc.expectedBody {
				assert.Contains(t, rr.Body.String(), s)
			}
			if tc.location != "" {
				assert.Equal(t, tc.location, rr.Header().Get("Location"))
			}
		})
	}
}

func TestSuccessFlash(t *testing.T) {
	t.Parallel()

	sessions, pages := newDeps(t)
	mockCreator := mocks.NewBookingCreator(t)
	mockCreator.On("Create", mock.Anything, "alice", gymInput).Return(int64(9), nil)

	rr := httptest.NewRecorder()
	New(slogdiscard.NewDiscardLogger(), mockCreator, sessions, pages).ServeHTTP(rr, newRequest(gymForm(), "alice"))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		next.AddCookie(c)
	}

	f, ok := sessions.PopFlash(httptest.NewRecorder(), next)
	require.True(t, ok)
	assert.Equal(t, session.KindSuccess, f.Kind)
	assert.Equal(t, MessageSuccess, f.Message)
}

// The auth middleware in front of the handler stops anonymous posts before
// the service is reached.
func TestHandlerBehindAuthMiddleware(t *testing.T) {
	t.Parallel()

	sessions, pages := newDeps(t)
	mockCreator := mocks.NewBookingCreator(t)
	logger := slogdiscard.NewDiscardLogger()

	router := chi.NewRouter()
	router.Use(sessions.Middleware)
	router.Group(func(r chi.Router) {
		r.Use(mwauth.New(logger, sessions))
		r.Post("/booking", New(logger, mockCreator, sessions, pages))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newRequest(gymForm(), ""))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, mwauth.LoginPath, rr.Header().Get("Location"))
	mockCreator.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
