package models

// Kind discriminates the two form flows handled by the submit endpoint.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindContact      Kind = "contact"
	KindRegistration Kind = "registration"
)

// Result statuses on the wire.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SubmissionResult is the wire response for both form flows. Exactly one of
// TeamID/TicketID is set on success; Message is always safe to display.
type SubmissionResult struct {
	Status   string `json:"status"`
	TeamID   string `json:"teamId,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ErrorResult builds the single error shape every rejection funnels to.
func ErrorResult(message string) *SubmissionResult {
	return &SubmissionResult{
		Status:  StatusError,
		Message: message,
	}
}

// ContactForm is the input to the contact submission pipeline.
type ContactForm struct {
	Name     string
	Email    string
	Phone    string
	Subject  string
	Message  string
	Honeypot string
}

// RegistrationForm is the input to the registration submission pipeline.
// TeamSize 1 uses Name; TeamSize 2 uses LeaderName and MateName.
type RegistrationForm struct {
	TeamName   string
	EventName  string
	TeamSize   int
	Name       string
	LeaderName string
	MateName   string
	College    string
	Department string
	Year       string
	Phone      string
	Email      string
	Honeypot   string
}

// ClassifyKind reports which flow a raw field map belongs to. Registration is
// checked first so a payload carrying both discriminator pairs lands in the
// registration table, matching the reference backend's dispatch order.
func ClassifyKind(fields map[string]string) Kind {
	if fields["teamName"] != "" && fields["eventName"] != "" {
		return KindRegistration
	}
	if fields["subject"] != "" && fields["message"] != "" {
		return KindContact
	}
	return KindUnknown
}
