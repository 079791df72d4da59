package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/ratelimit"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/validation"
	pkgerrors "github.com/nova-nexus-hub/nexora-forms-backend/pkg/errors"
)

// Default per-submission timeouts. Registration writes two notification
// emails server-side, so it gets a longer budget.
const (
	DefaultContactTimeout      = 10 * time.Second
	DefaultRegistrationTimeout = 15 * time.Second
	DefaultCooldown            = 30 * time.Second
)

const maxResponseBody = 1 << 20

// Displayable validation messages. These reach end users verbatim.
const (
	msgFillRequired  = "Please fill in all required fields."
	msgNameLength    = "Name must be between 2 and 50 characters."
	msgNamesLength   = "Names must be between 2 and 50 characters."
	msgTeamNameSize  = "Team name must be between 2 and 50 characters."
	msgEmailInvalid  = "Please enter a valid email address."
	msgPhoneInvalid  = "Please enter a valid 10-digit Indian mobile number."
	msgMessageLength = "Message must be between 10 and 1000 characters."
	msgSuspicious    = "Invalid input detected. Please remove any special characters or code."
	msgTeamSize      = "Please select a team size."
)

// Client submits contact messages and event registrations to the forms
// backend. All validation runs locally before any network traffic, a
// honeypot hit never produces a request, and the cooldown only advances on
// a confirmed success.
//
// A Client is safe for concurrent use; overlapping submissions past the
// first return ErrSubmissionInFlight.
type Client struct {
	endpoint   string
	httpClient *http.Client
	cooldown   *ratelimit.Cooldown
	userAgent  string
	logger     *logrus.Logger
	inFlight   atomic.Bool

	contactTimeout      time.Duration
	registrationTimeout time.Duration
	now                 func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The per-submission deadline is set
// through the request context, so the client's own Timeout should stay zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the user-agent string sent in the form body. It is
// truncated to the shared cap before sending.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger replaces the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCooldown overrides the interval enforced between successful
// submissions.
func WithCooldown(window time.Duration) Option {
	return func(c *Client) { c.cooldown = ratelimit.NewCooldown(window) }
}

// WithTimeouts overrides the per-submission deadlines.
func WithTimeouts(contact, registration time.Duration) Option {
	return func(c *Client) {
		c.contactTimeout = contact
		c.registrationTimeout = registration
	}
}

// New creates a Client that posts submissions to endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:            endpoint,
		httpClient:          &http.Client{},
		cooldown:            ratelimit.NewCooldown(DefaultCooldown),
		userAgent:           "nexora-forms-client/1.0",
		logger:              logrus.New(),
		contactTimeout:      DefaultContactTimeout,
		registrationTimeout: DefaultRegistrationTimeout,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitContact validates and submits a contact message. The returned
// result's strings have been sanitized and are safe to display.
func (c *Client) SubmitContact(ctx context.Context, form models.ContactForm) (*models.SubmissionResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, pkgerrors.ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	if form.Honeypot != "" {
		c.logger.Debug("Honeypot field filled, dropping submission")
		return nil, pkgerrors.ErrBotDetected
	}

	if ok, remaining := c.cooldown.Check(); !ok {
		return nil, &RateLimitedError{RetryAfter: remaining}
	}

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	phone := strings.TrimSpace(form.Phone)
	subject := strings.TrimSpace(form.Subject)
	message := strings.TrimSpace(form.Message)

	if name == "" || email == "" || phone == "" || subject == "" || message == "" {
		return nil, &ValidationError{Message: msgFillRequired}
	}
	if !validation.NameLengthOK(name) {
		return nil, &ValidationError{Message: msgNameLength}
	}
	if !validation.ValidEmail(email) {
		return nil, &ValidationError{Message: msgEmailInvalid}
	}
	if !validation.ValidPhone(phone) {
		return nil, &ValidationError{Message: msgPhoneInvalid}
	}
	if !validation.MessageLengthOK(message) {
		return nil, &ValidationError{Message: msgMessageLength}
	}
	if validation.SuspiciousClient(name + email + subject + message) {
		return nil, &ValidationError{Message: msgSuspicious}
	}

	body := url.Values{}
	body.Set("name", validation.SanitizeEncode(name))
	body.Set("email", validation.SanitizeEncode(email))
	body.Set("phone", validation.NormalizePhone(phone))
	body.Set("subject", validation.SanitizeEncode(subject))
	body.Set("message", validation.SanitizeEncode(message))

	return c.send(ctx, body, c.contactTimeout)
}

// SubmitRegistration validates and submits an event registration. Team size
// 1 registers form.Name; team size 2 registers form.LeaderName and
// form.MateName.
func (c *Client) SubmitRegistration(ctx context.Context, form models.RegistrationForm) (*models.SubmissionResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, pkgerrors.ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	if form.Honeypot != "" {
		c.logger.Debug("Honeypot field filled, dropping submission")
		return nil, pkgerrors.ErrBotDetected
	}

	if ok, remaining := c.cooldown.Check(); !ok {
		return nil, &RateLimitedError{RetryAfter: remaining}
	}

	teamName := strings.TrimSpace(form.TeamName)
	eventName := strings.TrimSpace(form.EventName)
	college := strings.TrimSpace(form.College)
	department := strings.TrimSpace(form.Department)
	year := strings.TrimSpace(form.Year)
	phone := strings.TrimSpace(form.Phone)
	email := strings.TrimSpace(form.Email)

	if form.TeamSize != 1 && form.TeamSize != 2 {
		return nil, &ValidationError{Message: msgTeamSize}
	}

	var participants []string
	switch form.TeamSize {
	case 1:
		participants = []string{strings.TrimSpace(form.Name)}
	case 2:
		participants = []string{strings.TrimSpace(form.LeaderName), strings.TrimSpace(form.MateName)}
	}

	required := append([]string{teamName, eventName, college, department, year, phone, email}, participants...)
	for _, v := range required {
		if v == "" {
			return nil, &ValidationError{Message: msgFillRequired}
		}
	}
	if !validation.NameLengthOK(teamName) {
		return nil, &ValidationError{Message: msgTeamNameSize}
	}
	for _, p := range participants {
		if !validation.NameLengthOK(p) {
			return nil, &ValidationError{Message: msgNamesLength}
		}
	}
	if !validation.ValidEmail(email) {
		return nil, &ValidationError{Message: msgEmailInvalid}
	}
	if !validation.ValidPhone(phone) {
		return nil, &ValidationError{Message: msgPhoneInvalid}
	}
	if validation.SuspiciousClient(strings.Join(append([]string{teamName, college, department, email}, participants...), " ")) {
		return nil, &ValidationError{Message: msgSuspicious}
	}

	body := url.Values{}
	body.Set("teamName", validation.SanitizeEncode(teamName))
	body.Set("eventName", validation.SanitizeEncode(eventName))
	body.Set("teamSize", strconv.Itoa(form.TeamSize))
	body.Set("college", validation.SanitizeEncode(college))
	body.Set("department", validation.SanitizeEncode(department))
	body.Set("year", validation.SanitizeEncode(year))
	body.Set("phone", validation.NormalizePhone(phone))
	body.Set("email", validation.SanitizeEncode(email))
	if form.TeamSize == 1 {
		body.Set("name", validation.SanitizeEncode(participants[0]))
	} else {
		body.Set("leaderName", validation.SanitizeEncode(participants[0]))
		body.Set("mateName", validation.SanitizeEncode(participants[1]))
	}

	return c.send(ctx, body, c.registrationTimeout)
}

// send posts the form body and interprets the response. The body gains the
// anti-abuse metadata fields just before the wire.
func (c *Client) send(ctx context.Context, body url.Values, timeout time.Duration) (*models.SubmissionResult, error) {
	body.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	body.Set("userAgent", validation.TruncateUserAgent(c.userAgent))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			c.logger.WithField("timeout", timeout.String()).Warn("Submission timed out")
			return nil, pkgerrors.ErrNetworkTimeout
		}
		c.logger.WithError(err).Warn("Submission transport failure")
		return nil, pkgerrors.Wrap(pkgerrors.ErrNetworkFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithField("status_code", resp.StatusCode).Warn("Submission rejected with non-2xx status")
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNetworkFailure, "unexpected status %d", resp.StatusCode)
	}

	var result models.SubmissionResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&result); err != nil {
		c.logger.WithError(err).Warn("Malformed submission response")
		return nil, pkgerrors.Wrap(pkgerrors.ErrNetworkFailure, "malformed response")
	}

	if result.Status != models.StatusSuccess {
		return nil, &ServerRejectedError{Message: validation.SanitizeEncode(result.Message)}
	}

	// Server-echoed strings are re-sanitized before display.
	result.TeamID = validation.SanitizeEncode(result.TeamID)
	result.TicketID = validation.SanitizeEncode(result.TicketID)
	result.Message = validation.SanitizeEncode(result.Message)

	c.cooldown.RecordSuccess()
	return &result, nil
}
