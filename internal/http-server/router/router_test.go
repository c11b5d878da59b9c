package router

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"campusBooker/internal/config"
	"campusBooker/internal/http-server/views"
	"campusBooker/internal/lib/logger/handlers/slogdiscard"
	"campusBooker/internal/models"
	"campusBooker/internal/services/account"
	"campusBooker/internal/services/booking"
	"campusBooker/internal/session"
	"campusBooker/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	server *httptest.Server
	store  *memory.Storage
	client *http.Client
}

func newTestApp(t *testing.T, csrfDisabled bool) *testApp {
	t.Helper()

	logger := slogdiscard.NewDiscardLogger()
	cfg := config.Auth{
		Secret:       "0123456789abcdef0123456789abcdef",
		Issuer:       "test",
		SessionTTL:   time.Hour,
		FlashTTL:     time.Minute,
		CSRFDisabled: csrfDisabled,
		PasswordCost: bcrypt.MinCost,
	}

	store := memory.New()
	pages, err := views.New()
	require.NoError(t, err)

	handler, err := New(logger, cfg, Deps{
		Accounts:  account.New(logger, store, store, cfg.PasswordCost),
		Bookings:  booking.New(logger, store, store),
		DB:        store,
		Sessions:  session.NewManager(cfg),
		Pages:     pages,
		StartedAt: time.Now(),
	})
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server: server,
		store:  store,
		client: &http.Client{Jar: jar},
	}
}

// do follows redirects and returns the final status and body.
func (a *testApp) do(t *testing.T, method, path string, form url.Values) (int, string, string) {
	t.Helper()

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = a.client.Get(a.server.URL + path)
	case http.MethodPost:
		resp, err = a.client.PostForm(a.server.URL+path, form)
	default:
		t.Fatalf("unsupported method %s", method)
	}
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, resp.Request.URL.Path, string(body)
}

func registerForm(username, email string) url.Values {
	return url.Values{
		"username":         {username},
		"school_id":        {"S123"},
		"email":            {email},
		"password":         {"pw1"},
		"confirm_password": {"pw1"},
	}
}

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, path, body := app.do(t, http.MethodPost, "/register", registerForm("alice", "alice@x.edu"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "Registration successful! You can now login.")

	status, _, body = app.do(t, http.MethodPost, "/register", registerForm("alice", "alice2@x.edu"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "Username already exists.")

	status, _, body = app.do(t, http.MethodPost, "/register", registerForm("alice2", "alice@x.edu"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "Email already registered.")
	assert.Equal(t, 1, app.store.UserCount())

	status, path, body = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", path)
	assert.Contains(t, body, "Login successful!")
	assert.Contains(t, body, "Signed in as alice")

	status, _, body = app.do(t, http.MethodGet, "/booking", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="facility"`)

	status, path, body = app.do(t, http.MethodPost, "/booking", url.Values{
		"facility": {"Gym"},
		"date":     {"2024-05-01"},
		"time":     {"14:30"},
		"message":  {"team practice"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", path)
	assert.Contains(t, body, "Booking successful!")

	alice, err := app.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	bookings := app.store.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, alice.ID, bookings[0].UserID)
	assert.Equal(t, "Gym", bookings[0].Facility)
	assert.Equal(t, "2024-05-01", bookings[0].Date.Format(models.DateLayout))
	assert.Equal(t, "14:30", bookings[0].Time.Format(models.TimeLayout))
	assert.Equal(t, "team practice", bookings[0].Message)

	status, path, body = app.do(t, http.MethodGet, "/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "You have been logged out.")
	assert.NotContains(t, body, "Signed in as")

	status, path, body = app.do(t, http.MethodPost, "/booking", url.Values{
		"facility": {"Gym"},
		"date":     {"2024-05-02"},
		"time":     {"09:00"},
		"message":  {"again"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "You need to log in to make a booking.")
	assert.Len(t, app.store.Bookings(), 1)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, _, _ := app.do(t, http.MethodPost, "/register", registerForm("alice", "alice@x.edu"))
	require.Equal(t, http.StatusOK, status)

	unknownStatus, _, unknownBody := app.do(t, http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {"pw1"}})
	wrongStatus, _, wrongBody := app.do(t, http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {"nope"}})

	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, unknownStatus, wrongStatus)
	assert.Equal(t, unknownBody, wrongBody)

	aliceStatus, _, aliceBody := app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, aliceStatus)
	assert.Contains(t, aliceBody, "Invalid username or password")
}

func TestRegisterPasswordLength(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		password   string
		wantStatus int
		wantPath   string
		wantBody   string
		wantUsers  int
	}{
		{
			name:       "72 bytes",
			password:   strings.Repeat("a", 72),
			wantStatus: http.StatusOK,
			wantPath:   "/login",
			wantBody:   "Registration successful! You can now login.",
			wantUsers:  1,
		},
		{
			name:       "73 bytes",
			password:   strings.Repeat("a", 73),
			wantStatus: http.StatusBadRequest,
			wantPath:   "/register",
			wantBody:   "Password is too long. Use at most 72 bytes.",
		},
		{
			name:       "Multibyte over 72 bytes",
			password:   strings.Repeat("é", 37),
			wantStatus: http.StatusBadRequest,
			wantPath:   "/register",
			wantBody:   "Password is too long. Use at most 72 bytes.",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newTestApp(t, true)

			form := registerForm("alice", "alice@x.edu")
			form.Set("password", tc.password)
			form.Set("confirm_password", tc.password)

			status, path, body := app.do(t, http.MethodPost, "/register", form)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantPath, path)
			assert.Contains(t, body, tc.wantBody)
			assert.Equal(t, tc.wantUsers, app.store.UserCount())

			if tc.wantUsers == 0 {
				return
			}

			status, _, body = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {tc.password}})
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, "Signed in as alice")
		})
	}
}

func TestLoginWithBlankPassword(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, _, _ := app.do(t, http.MethodPost, "/register", registerForm("alice", "alice@x.edu"))
	require.Equal(t, http.StatusOK, status)

	blankStatus, _, blankBody := app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusUnauthorized, blankStatus)
	assert.Contains(t, blankBody, "Invalid username or password")
}

func TestBookingRequiresSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, path, body := app.do(t, http.MethodGet, "/booking", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", path)
	assert.Contains(t, body, "You need to log in to make a booking.")
	assert.Empty(t, app.store.Bookings())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, _, body := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"OK"`)
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, true)

	status, _, body := app.do(t, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ".flash")
}

var csrfField = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

func TestCSRF(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, false)

	status, _, body := app.do(t, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, status)

	match := csrfField.FindStringSubmatch(body)
	require.Len(t, match, 2, "login form must carry a csrf token")

	status, _, _ = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = app.do(t, http.MethodPost, "/login", url.Values{
		"username":           {"alice"},
		"password":           {"pw1"},
		"gorilla.csrf.Token": {match[1]},
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid username or password")
}
