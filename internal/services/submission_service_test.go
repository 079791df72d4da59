package services

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/config"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/ratelimit"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/repositories"
	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/metrics"
)

var (
	teamIDRe   = regexp.MustCompile(`^NXR\d{6}\d{3}$`)
	ticketIDRe = regexp.MustCompile(`^TKT\d{6}\d{3}$`)
)

func newTestService(t *testing.T, rateLimit int) (*SubmissionService, *repositories.MemoryStore, time.Time) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	now := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	limiter := ratelimit.NewFingerprintLimiter(rateLimit, time.Hour, logger)
	store := repositories.NewMemoryStore()

	svc := NewSubmissionService(store, limiter, NoopNotifier{}, metrics.NewMetrics(), logger, &config.SecurityConfig{
		TimestampMaxAge:  5 * time.Minute,
		TimestampMaxSkew: time.Minute,
	})
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.EnsureTables(context.Background()))
	return svc, store, now
}

func contactFields(now time.Time) map[string]string {
	return map[string]string{
		"name":      "Jane Doe",
		"email":     "jane@example.com",
		"phone":     "9876543210",
		"subject":   "Event query",
		"message":   "This message is long enough.",
		"timestamp": strconv.FormatInt(now.UnixMilli(), 10),
		"userAgent": "Mozilla/5.0 (test)",
	}
}

func registrationFields(now time.Time) map[string]string {
	return map[string]string{
		"teamName":   "Team Alpha",
		"eventName":  "Code Sprint",
		"teamSize":   "1",
		"name":       "Jane Doe",
		"college":    "Kings Engineering College",
		"department": "CSE",
		"year":       "3",
		"phone":      "9876543210",
		"email":      "jane@example.com",
		"timestamp":  strconv.FormatInt(now.UnixMilli(), 10),
		"userAgent":  "Mozilla/5.0 (test)",
	}
}

func TestHandleSubmission_ContactSuccess(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	result := svc.HandleSubmission(context.Background(), contactFields(now))

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Regexp(t, ticketIDRe, result.TicketID)
	assert.Empty(t, result.TeamID)

	rows := store.Rows(repositories.TableContactMessages)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0][2])
	assert.Equal(t, "New", rows[0][7])
}

func TestHandleSubmission_RegistrationSoloSuccess(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	result := svc.HandleSubmission(context.Background(), registrationFields(now))

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Regexp(t, teamIDRe, result.TeamID)

	rows := store.Rows(repositories.TableRegistrations)
	require.Len(t, rows, 1)
	assert.Equal(t, "Team Alpha", rows[0][2])
	assert.Equal(t, "1", rows[0][4])
	assert.Equal(t, "Pending", rows[0][12])
}

func TestHandleSubmission_RegistrationDuoRequiresMateName(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	fields := registrationFields(now)
	fields["teamSize"] = "2"
	fields["leaderName"] = "Jane Doe"
	delete(fields, "name")
	// mateName deliberately missing

	result := svc.HandleSubmission(context.Background(), fields)

	assert.Equal(t, models.StatusError, result.Status)
	rows := store.Rows(repositories.TableRegistrations)
	assert.Empty(t, rows, "rejected submission must not persist")
}

func TestHandleSubmission_RegistrationDuoSuccess(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	fields := registrationFields(now)
	fields["teamSize"] = "2"
	fields["leaderName"] = "Jane Doe"
	fields["mateName"] = "John Roe"
	delete(fields, "name")

	result := svc.HandleSubmission(context.Background(), fields)

	require.Equal(t, models.StatusSuccess, result.Status)
	rows := store.Rows(repositories.TableRegistrations)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0][5])
	assert.Equal(t, "John Roe", rows[0][6])
}

func TestHandleSubmission_RegistrationAliasFields(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	fields := registrationFields(now)
	fields["soloCollege"] = fields["college"]
	fields["soloDepartment"] = fields["department"]
	delete(fields, "college")
	delete(fields, "department")

	result := svc.HandleSubmission(context.Background(), fields)

	require.Equal(t, models.StatusSuccess, result.Status)
	rows := store.Rows(repositories.TableRegistrations)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kings Engineering College", rows[0][7])
	assert.Equal(t, "CSE", rows[0][8])
}

func TestHandleSubmission_Honeypot(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	fields := contactFields(now)
	fields[HoneypotField] = "http://spam.example"

	result := svc.HandleSubmission(context.Background(), fields)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, msgInvalidRequest, result.Message,
		"honeypot rejection must be indistinguishable from other rejections")
	assert.Empty(t, store.Rows(repositories.TableContactMessages))
}

func TestHandleSubmission_TimestampWindow(t *testing.T) {
	svc, _, now := newTestService(t, 100)

	tests := []struct {
		name      string
		timestamp string
		wantOK    bool
	}{
		{"fresh", strconv.FormatInt(now.UnixMilli(), 10), true},
		{"missing", "", false},
		{"garbage", "not-a-number", false},
		{"too old", strconv.FormatInt(now.Add(-6*time.Minute).UnixMilli(), 10), false},
		{"just inside age", strconv.FormatInt(now.Add(-4*time.Minute).UnixMilli(), 10), true},
		{"too far in future", strconv.FormatInt(now.Add(2*time.Minute).UnixMilli(), 10), false},
		{"slight skew", strconv.FormatInt(now.Add(30*time.Second).UnixMilli(), 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := contactFields(now)
			fields["timestamp"] = tt.timestamp

			result := svc.HandleSubmission(context.Background(), fields)
			if tt.wantOK {
				assert.Equal(t, models.StatusSuccess, result.Status)
			} else {
				assert.Equal(t, models.StatusError, result.Status)
			}
		})
	}
}

func TestHandleSubmission_RateLimitCeiling(t *testing.T) {
	svc, store, now := newTestService(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := svc.HandleSubmission(ctx, contactFields(now))
		require.Equal(t, models.StatusSuccess, result.Status, "submission %d", i+1)
	}

	result := svc.HandleSubmission(ctx, contactFields(now))
	assert.Equal(t, models.StatusError, result.Status)

	rows := store.Rows(repositories.TableContactMessages)
	assert.Len(t, rows, 3, "rate-limited submission must not add a row")
}

func TestHandleSubmission_FieldValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"bad email", func(f map[string]string) { f["email"] = "a@b" }},
		{"bad phone", func(f map[string]string) { f["phone"] = "5987654321" }},
		{"name too short", func(f map[string]string) { f["name"] = "J" }},
		{"message too short", func(f map[string]string) { f["message"] = "short" }},
		{"script in message", func(f map[string]string) { f["message"] = "hello <script>alert(1)</script>" }},
		{"iframe in subject", func(f map[string]string) { f["subject"] = "<iframe src=x>" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, now := newTestService(t, 3)
			fields := contactFields(now)
			tt.mutate(fields)

			result := svc.HandleSubmission(context.Background(), fields)
			assert.Equal(t, models.StatusError, result.Status)
			assert.Empty(t, store.Rows(repositories.TableContactMessages))
		})
	}
}

func TestHandleSubmission_UnknownFormType(t *testing.T) {
	svc, _, now := newTestService(t, 3)

	fields := map[string]string{
		"name":      "Jane Doe",
		"email":     "jane@example.com",
		"timestamp": strconv.FormatInt(now.UnixMilli(), 10),
		"userAgent": "Mozilla/5.0 (test)",
	}

	result := svc.HandleSubmission(context.Background(), fields)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, msgUnknownFormType, result.Message)
}

func TestHandleSubmission_StripsStoredValues(t *testing.T) {
	svc, store, now := newTestService(t, 3)

	fields := contactFields(now)
	fields["name"] = `Jane "JD" Doe`

	result := svc.HandleSubmission(context.Background(), fields)
	require.Equal(t, models.StatusSuccess, result.Status)

	rows := store.Rows(repositories.TableContactMessages)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane JD Doe", rows[0][2])
}

func TestGenerateID(t *testing.T) {
	now := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	id := generateID(ticketIDPrefix, now)
	assert.Regexp(t, ticketIDRe, id)

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	assert.Equal(t, ms[len(ms)-6:], id[3:9])
}
