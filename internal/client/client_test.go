package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
	pkgerrors "github.com/nova-nexus-hub/nexora-forms-backend/pkg/errors"
)

type backendStub struct {
	hits     atomic.Int64
	lastBody url.Values
	respond  func(w http.ResponseWriter, r *http.Request)
}

func newBackendStub(body string) (*backendStub, *httptest.Server) {
	stub := &backendStub{}
	stub.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.hits.Add(1)
		_ = r.ParseForm()
		stub.lastBody = r.PostForm
		stub.respond(w, r)
	}))
	return stub, server
}

func newTestClient(endpoint string, opts ...Option) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	base := []Option{
		WithLogger(logger),
		WithUserAgent("Mozilla/5.0 (test-suite)"),
	}
	return New(endpoint, append(base, opts...)...)
}

func validContactForm() models.ContactForm {
	return models.ContactForm{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "+91 98765 43210",
		Subject: "Sponsorship",
		Message: "We are interested in sponsoring the event this year.",
	}
}

func validRegistrationForm(teamSize int) models.RegistrationForm {
	form := models.RegistrationForm{
		TeamName:   "Null Pointers",
		EventName:  "Hackathon",
		TeamSize:   teamSize,
		College:    "NIT Trichy",
		Department: "CSE",
		Year:       "3",
		Phone:      "9876543210",
		Email:      "team@example.com",
	}
	if teamSize == 1 {
		form.Name = "Asha Rao"
	} else {
		form.LeaderName = "Asha Rao"
		form.MateName = "Vikram Iyer"
	}
	return form
}

func TestSubmitContact_Success(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success","ticketId":"TKT123456789","message":"Message sent successfully"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	result, err := c.SubmitContact(context.Background(), validContactForm())
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Regexp(t, `^TKT\d{6}\d{3}$`, result.TicketID)
	assert.Equal(t, int64(1), stub.hits.Load())

	assert.Equal(t, "Asha Rao", stub.lastBody.Get("name"))
	assert.Equal(t, "9876543210", stub.lastBody.Get("phone"))
	assert.NotEmpty(t, stub.lastBody.Get("timestamp"))
	assert.Equal(t, "Mozilla/5.0 (test-suite)", stub.lastBody.Get("userAgent"))
	assert.Empty(t, stub.lastBody.Get("website"))
}

func TestSubmitContact_HoneypotSendsNothing(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	form := validContactForm()
	form.Honeypot = "http://spam.example"

	result, err := c.SubmitContact(context.Background(), form)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrBotDetected)
	assert.Equal(t, int64(0), stub.hits.Load())
	assert.Empty(t, DisplayMessage(err))
}

func TestSubmitContact_CooldownBlocksSecondAttempt(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success","ticketId":"TKT123456789"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.SubmitContact(context.Background(), validContactForm())
	require.NoError(t, err)

	_, err = c.SubmitContact(context.Background(), validContactForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrRateLimited)

	var rlErr *RateLimitedError
	require.ErrorAs(t, err, &rlErr)
	assert.Greater(t, rlErr.Seconds(), 0)

	assert.Equal(t, int64(1), stub.hits.Load())
}

func TestSubmitContact_ValidationStopsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ContactForm)
		message string
	}{
		{
			name:    "missing email",
			mutate:  func(f *models.ContactForm) { f.Email = "" },
			message: "Please fill in all required fields.",
		},
		{
			name:    "name too short",
			mutate:  func(f *models.ContactForm) { f.Name = "A" },
			message: "Name must be between 2 and 50 characters.",
		},
		{
			name:    "bare domain email",
			mutate:  func(f *models.ContactForm) { f.Email = "a@b" },
			message: "Please enter a valid email address.",
		},
		{
			name:    "phone starts below six",
			mutate:  func(f *models.ContactForm) { f.Phone = "1234567890" },
			message: "Please enter a valid 10-digit Indian mobile number.",
		},
		{
			name:    "message too short",
			mutate:  func(f *models.ContactForm) { f.Message = "hi there" },
			message: "Message must be between 10 and 1000 characters.",
		},
		{
			name:    "script tag in message",
			mutate:  func(f *models.ContactForm) { f.Message = "hello <script>alert(1)</script>" },
			message: "Invalid input detected. Please remove any special characters or code.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, server := newBackendStub(`{"status":"success"}`)
			defer server.Close()

			c := newTestClient(server.URL)
			form := validContactForm()
			tt.mutate(&form)

			result, err := c.SubmitContact(context.Background(), form)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, pkgerrors.ErrValidation)
			assert.Equal(t, tt.message, DisplayMessage(err))
			assert.Equal(t, int64(0), stub.hits.Load())
		})
	}
}

func TestSubmitContact_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	c := newTestClient(server.URL, WithTimeouts(50*time.Millisecond, 50*time.Millisecond))
	result, err := c.SubmitContact(context.Background(), validContactForm())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkTimeout)
	assert.Equal(t, "Request timeout. Please try again.", DisplayMessage(err))
}

func TestSubmitContact_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newTestClient(server.URL)
	_, err := c.SubmitContact(context.Background(), validContactForm())

	assert.ErrorIs(t, err, pkgerrors.ErrNetworkFailure)
	assert.Equal(t,
		"Failed to send message. Please check your internet connection and try again.",
		DisplayMessage(err))
}

func TestSubmitContact_ServerRejectionDoesNotAdvanceCooldown(t *testing.T) {
	stub, server := newBackendStub(`{"status":"error","message":"Too many requests. Please try later."}`)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.SubmitContact(context.Background(), validContactForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrServerRejected)

	// A rejection leaves the cooldown untouched, so the retry reaches the
	// server again.
	_, err = c.SubmitContact(context.Background(), validContactForm())
	assert.ErrorIs(t, err, pkgerrors.ErrServerRejected)
	assert.Equal(t, int64(2), stub.hits.Load())
}

func TestSubmitContact_SanitizesServerEcho(t *testing.T) {
	_, server := newBackendStub(`{"status":"error","message":"<img src=x> rejected"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.SubmitContact(context.Background(), validContactForm())

	var srErr *ServerRejectedError
	require.ErrorAs(t, err, &srErr)
	assert.NotContains(t, srErr.Message, "<")
	assert.Contains(t, srErr.Message, "&lt;img")

	_, server2 := newBackendStub(`{"status":"success","ticketId":"<script>TKT000000000</script>"}`)
	defer server2.Close()

	c2 := newTestClient(server2.URL)
	result, err := c2.SubmitContact(context.Background(), validContactForm())
	require.NoError(t, err)
	assert.NotContains(t, result.TicketID, "<script>")
}

func TestSubmitRegistration_Solo(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success","teamId":"NXR123456789","message":"Registration successful"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	result, err := c.SubmitRegistration(context.Background(), validRegistrationForm(1))
	require.NoError(t, err)

	assert.Regexp(t, `^NXR\d{6}\d{3}$`, result.TeamID)
	assert.Equal(t, "1", stub.lastBody.Get("teamSize"))
	assert.Equal(t, "Asha Rao", stub.lastBody.Get("name"))
	assert.Empty(t, stub.lastBody.Get("leaderName"))
}

func TestSubmitRegistration_Duo(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success","teamId":"NXR123456789"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.SubmitRegistration(context.Background(), validRegistrationForm(2))
	require.NoError(t, err)

	assert.Equal(t, "2", stub.lastBody.Get("teamSize"))
	assert.Equal(t, "Asha Rao", stub.lastBody.Get("leaderName"))
	assert.Equal(t, "Vikram Iyer", stub.lastBody.Get("mateName"))
	assert.Empty(t, stub.lastBody.Get("name"))
}

func TestSubmitRegistration_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.RegistrationForm)
		message string
	}{
		{
			name:    "unsupported team size",
			mutate:  func(f *models.RegistrationForm) { f.TeamSize = 3 },
			message: "Please select a team size.",
		},
		{
			name:    "duo missing mate name",
			mutate:  func(f *models.RegistrationForm) { f.MateName = "" },
			message: "Please fill in all required fields.",
		},
		{
			name:    "team name too long",
			mutate:  func(f *models.RegistrationForm) { f.TeamName = strings.Repeat("x", 51) },
			message: "Team name must be between 2 and 50 characters.",
		},
		{
			name:    "mate name too short",
			mutate:  func(f *models.RegistrationForm) { f.MateName = "V" },
			message: "Names must be between 2 and 50 characters.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, server := newBackendStub(`{"status":"success"}`)
			defer server.Close()

			c := newTestClient(server.URL)
			form := validRegistrationForm(2)
			tt.mutate(&form)

			_, err := c.SubmitRegistration(context.Background(), form)
			assert.ErrorIs(t, err, pkgerrors.ErrValidation)
			assert.Equal(t, tt.message, DisplayMessage(err))
			assert.Equal(t, int64(0), stub.hits.Load())
		})
	}
}

func TestClient_RejectsOverlappingSubmission(t *testing.T) {
	stub, server := newBackendStub(`{"status":"success"}`)
	defer server.Close()

	c := newTestClient(server.URL)
	c.inFlight.Store(true)

	_, err := c.SubmitContact(context.Background(), validContactForm())
	assert.ErrorIs(t, err, pkgerrors.ErrSubmissionInFlight)
	assert.Equal(t, int64(0), stub.hits.Load())
}
