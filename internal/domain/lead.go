package domain

import "time"

// Lead is the pipeline's partial view of a CRM lead. The CRUD subsystem owns
// the full entity; this view carries only the fields the pipeline reads plus
// the GTI correlation mirror it writes back.
type Lead struct {
	ID                  string
	Name                string
	Phone               string
	CreditScore         *int
	TotalDebtAmount     *float64
	Disposition1        string
	LeadProgressStatus  string
	RequestedLoanAmount *float64

	// Cached denormalization of the inbound call correlation. The tracker
	// owns the lifecycle; these are backfilled at postback time.
	GTIPrimaryPhone string
	GTICallUUID     string
	GTILastPostback *time.Time
}

// InboundCallRecord is the short-lived memory of "a call just arrived for
// this phone, with this correlation id". At most one record exists per
// primary phone; each arrival overwrites it.
type InboundCallRecord struct {
	PrimaryPhone string
	CallUUID     string
	ReceivedAt   time.Time
	LastSentAt   *time.Time
	SendCount    int
	Consumed     bool
}

// PostbackLog is the immutable audit record of one delivery attempt,
// including retries and pre-flight skips. Rows are append-only and retained
// indefinitely; they are the system-of-record for dialer reconciliation.
type PostbackLog struct {
	ID             string
	LeadID         *string
	CallUUID       string
	PrimaryPhone   string
	EventType      EventType
	Payload        string
	ResponseStatus *int
	ResponseBody   *string
	SentAt         time.Time
	Trigger        string
	Error          bool
	ErrorMessage   *string
	Attempt        int
}

// LeadHistoryEntry mirrors PostbackLog content on the lead itself for fast
// per-lead display. The list grows monotonically and is never reordered.
type LeadHistoryEntry struct {
	ID             int64
	LeadID         string
	CallUUID       string
	EventType      EventType
	Payload        string
	ResponseStatus *int
	Error          bool
	ErrorMessage   *string
	Attempt        int
	Trigger        string
	SentAt         time.Time
}
