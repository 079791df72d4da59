package services

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/config"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/ratelimit"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/repositories"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/validation"
	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/metrics"
)

// HoneypotField is the hidden form field; any non-empty value marks the
// submission as bot traffic.
const HoneypotField = "website"

// User-facing messages. Every rejection uses one of these; internal detail
// only ever reaches the log.
const (
	msgInvalidRequest     = "Invalid request"
	msgUnknownFormType    = "Unknown form type"
	msgRegistrationFailed = "Registration failed. Please try again."
	msgContactFailed      = "Failed to send message. Please try again."
	msgRegistrationOK     = "Registration successful"
	msgContactOK          = "Message sent successfully"
)

const (
	teamIDPrefix   = "NXR"
	ticketIDPrefix = "TKT"
)

// SubmissionService independently re-validates every submission, enforces the
// fingerprint rate limit, persists accepted records and issues identifiers.
// It never trusts client-side validation.
type SubmissionService struct {
	store    repositories.RecordStore
	limiter  *ratelimit.FingerprintLimiter
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logrus.Logger

	timestampMaxAge  time.Duration
	timestampMaxSkew time.Duration
	now              func() time.Time
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(
	store repositories.RecordStore,
	limiter *ratelimit.FingerprintLimiter,
	notifier Notifier,
	m *metrics.Metrics,
	logger *logrus.Logger,
	cfg *config.SecurityConfig,
) *SubmissionService {
	return &SubmissionService{
		store:            store,
		limiter:          limiter,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		timestampMaxAge:  cfg.TimestampMaxAge,
		timestampMaxSkew: cfg.TimestampMaxSkew,
		now:              time.Now,
	}
}

// EnsureTables creates both form tables if absent. Called once at startup.
func (s *SubmissionService) EnsureTables(ctx context.Context) error {
	if err := s.store.EnsureTable(ctx, repositories.TableRegistrations, repositories.RegistrationHeader); err != nil {
		return err
	}
	return s.store.EnsureTable(ctx, repositories.TableContactMessages, repositories.ContactHeader)
}

// HandleSubmission runs the full validation gate over raw form fields and
// persists the record when every gate passes. Every path funnels to one of
// the two result shapes; a rejected submission never touches the store.
func (s *SubmissionService) HandleSubmission(ctx context.Context, fields map[string]string) *models.SubmissionResult {
	if gate := s.validateRequest(fields); gate != "" {
		s.metrics.RecordRejection(gate)
		return models.ErrorResult(msgInvalidRequest)
	}

	switch models.ClassifyKind(fields) {
	case models.KindRegistration:
		return s.handleRegistration(ctx, fields)
	case models.KindContact:
		return s.handleContact(ctx, fields)
	default:
		s.metrics.RecordRejection("unknown_form")
		return models.ErrorResult(msgUnknownFormType)
	}
}

// validateRequest evaluates the security gates in order and returns the name
// of the first gate that rejected, or "" when all pass. Rejections share one
// response shape regardless of gate, so a caller cannot tell detection apart
// from any other failure.
func (s *SubmissionService) validateRequest(fields map[string]string) string {
	if fields[HoneypotField] != "" {
		s.logger.WithField("honeypot", fields[HoneypotField]).Warn("Bot detected - honeypot filled")
		return "honeypot"
	}

	if !s.timestampFresh(fields["timestamp"]) {
		s.logger.WithField("timestamp", fields["timestamp"]).Warn("Invalid submission timestamp")
		return "timestamp"
	}

	allowed := s.limiter.Allow(fields["userAgent"])
	s.metrics.RecordRateLimitDecision(allowed)
	if !allowed {
		return "rate_limit"
	}

	if !s.fieldsValid(fields) {
		return "fields"
	}

	values := make([]string, 0, len(fields))
	for _, v := range fields {
		values = append(values, v)
	}
	if validation.SuspiciousServer(strings.Join(values, " ")) {
		s.logger.Warn("Suspicious pattern detected in input")
		return "deny_list"
	}

	return ""
}

// timestampFresh accepts submissions stamped within the bounded window
// around now; anything older or further in the future is treated as replay
// or clock-skew abuse.
func (s *SubmissionService) timestampFresh(raw string) bool {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ts <= 0 {
		return false
	}

	now := s.now().UnixMilli()
	if ts < now-s.timestampMaxAge.Milliseconds() {
		return false
	}
	if ts > now+s.timestampMaxSkew.Milliseconds() {
		return false
	}
	return true
}

// fieldsValid re-applies the client's field rules to whatever is present.
// Required-field presence is checked per form kind by the handlers below.
func (s *SubmissionService) fieldsValid(fields map[string]string) bool {
	if email := fields["email"]; email != "" && !validation.ValidEmail(email) {
		return false
	}
	if phone := fields["phone"]; phone != "" && !validation.ValidPhone(phone) {
		return false
	}
	for _, key := range []string{"name", "leaderName", "mateName", "teamName"} {
		if v := fields[key]; v != "" && !validation.NameLengthOK(v) {
			return false
		}
	}
	if msg := fields["message"]; msg != "" && !validation.MessageLengthOK(msg) {
		return false
	}
	return true
}

func (s *SubmissionService) handleRegistration(ctx context.Context, fields map[string]string) *models.SubmissionResult {
	teamSize := fields["teamSize"]
	if teamSize != "1" && teamSize != "2" {
		s.metrics.RecordRejection("team_size")
		return models.ErrorResult(msgUnknownFormType)
	}

	// The form posts solo*/duo* variants depending on the selected section.
	name := firstNonEmpty(fields["name"], fields["leaderName"])
	mateName := fields["mateName"]
	college := firstNonEmpty(fields["college"], fields["soloCollege"], fields["duoCollege"])
	department := firstNonEmpty(fields["department"], fields["soloDepartment"], fields["duoDepartment"])
	year := firstNonEmpty(fields["year"], fields["soloYear"], fields["duoYear"])
	phone := firstNonEmpty(fields["phone"], fields["soloPhone"], fields["duoPhone"])
	email := firstNonEmpty(fields["email"], fields["soloEmail"], fields["duoEmail"])

	required := []string{fields["teamName"], fields["eventName"], name, college, department, year, phone, email}
	if teamSize == "2" {
		required = append(required, mateName)
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			s.metrics.RecordRejection("required_fields")
			return models.ErrorResult(msgInvalidRequest)
		}
	}

	teamID := generateID(teamIDPrefix, s.now())
	row := []string{
		s.now().UTC().Format(time.RFC3339),
		teamID,
		validation.SanitizeStrip(fields["teamName"]),
		validation.SanitizeStrip(fields["eventName"]),
		teamSize,
		validation.SanitizeStrip(name),
		validation.SanitizeStrip(mateName),
		validation.SanitizeStrip(college),
		validation.SanitizeStrip(department),
		validation.SanitizeStrip(year),
		validation.SanitizeStrip(phone),
		validation.SanitizeStrip(email),
		"Pending",
		userAgentOrUnknown(fields["userAgent"]),
	}

	if err := s.append(ctx, repositories.TableRegistrations, row); err != nil {
		s.logger.WithError(err).Error("Failed to persist registration")
		s.metrics.RecordSubmission(string(models.KindRegistration), false)
		return models.ErrorResult(msgRegistrationFailed)
	}

	s.logger.WithFields(logrus.Fields{
		"team_id":   teamID,
		"event":     row[3],
		"team_size": teamSize,
	}).Info("New registration submitted")
	s.metrics.RecordSubmission(string(models.KindRegistration), true)

	s.notifyAsync(string(models.KindRegistration), func() error {
		return s.notifier.SendRegistrationConfirmation(email, teamID, row[2])
	})

	return &models.SubmissionResult{
		Status:  models.StatusSuccess,
		TeamID:  teamID,
		Message: msgRegistrationOK,
	}
}

func (s *SubmissionService) handleContact(ctx context.Context, fields map[string]string) *models.SubmissionResult {
	for _, key := range []string{"name", "email", "phone", "message"} {
		if strings.TrimSpace(fields[key]) == "" {
			s.metrics.RecordRejection("required_fields")
			return models.ErrorResult(msgInvalidRequest)
		}
	}

	ticketID := generateID(ticketIDPrefix, s.now())
	row := []string{
		s.now().UTC().Format(time.RFC3339),
		ticketID,
		validation.SanitizeStrip(fields["name"]),
		validation.SanitizeStrip(fields["email"]),
		validation.SanitizeStrip(fields["phone"]),
		validation.SanitizeStrip(fields["subject"]),
		validation.SanitizeStrip(fields["message"]),
		"New",
		userAgentOrUnknown(fields["userAgent"]),
	}

	if err := s.append(ctx, repositories.TableContactMessages, row); err != nil {
		s.logger.WithError(err).Error("Failed to persist contact message")
		s.metrics.RecordSubmission(string(models.KindContact), false)
		return models.ErrorResult(msgContactFailed)
	}

	s.logger.WithField("ticket_id", ticketID).Info("New contact message submitted")
	s.metrics.RecordSubmission(string(models.KindContact), true)

	s.notifyAsync(string(models.KindContact), func() error {
		return s.notifier.SendContactConfirmation(fields["email"], ticketID)
	})

	return &models.SubmissionResult{
		Status:   models.StatusSuccess,
		TicketID: ticketID,
		Message:  msgContactOK,
	}
}

func (s *SubmissionService) append(ctx context.Context, table string, row []string) error {
	start := time.Now()
	err := s.store.Append(ctx, table, row)
	s.metrics.RecordStoreAppend(table, time.Since(start), err)
	return err
}

// notifyAsync dispatches a confirmation best-effort: a failed notification is
// logged and must not fail the submission.
func (s *SubmissionService) notifyAsync(kind string, send func() error) {
	go func() {
		err := send()
		s.metrics.RecordNotification(kind, err)
		if err != nil {
			s.logger.WithError(err).WithField("kind", kind).Warn("Confirmation email failed")
		}
	}()
}

// generateID builds a prefixed opaque identifier: prefix, the last six digits
// of the epoch-millisecond clock, then three random digits. Not globally
// unique; acceptable for a low-volume event form.
func generateID(prefix string, now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return fmt.Sprintf("%s%s%03d", prefix, ms[len(ms)-6:], rand.Intn(1000))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func userAgentOrUnknown(ua string) string {
	if ua == "" {
		return "Unknown"
	}
	return validation.TruncateUserAgent(ua)
}
