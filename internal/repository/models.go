package repository

import (
	"time"

	"github.com/reddlead/gti-pipeline/internal/domain"
)

// LeadModel is the persistence model for the pipeline's partial view of the
// leads table. The CRUD subsystem owns the full row; the pipeline reads the
// business fields and writes back only the gti_* mirror.
type LeadModel struct {
	ID                  string   `gorm:"type:uuid;primaryKey"`
	Name                string   `gorm:"type:varchar(255);not null"`
	Phone               string   `gorm:"type:varchar(32);not null"`
	CreditScore         *int     `gorm:"type:int"`
	TotalDebtAmount     *float64 `gorm:"type:numeric"`
	Disposition1        string   `gorm:"type:varchar(120)"`
	LeadProgressStatus  string   `gorm:"type:varchar(120)"`
	RequestedLoanAmount *float64 `gorm:"type:numeric"`
	GTIPrimaryPhone     string   `gorm:"column:gti_primary_phone;type:varchar(16)"`
	GTICallUUID         string   `gorm:"column:gti_call_uuid;type:varchar(64)"`
	GTILastPostback     *time.Time `gorm:"column:gti_last_postback"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (LeadModel) TableName() string {
	return "leads"
}

// PostbackLogModel is the persistence model for postback_logs, the
// append-only audit trail of every delivery attempt. No TTL.
type PostbackLogModel struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	LeadID         *string `gorm:"type:uuid"`
	CallUUID       string  `gorm:"column:call_uuid;type:varchar(64);not null"`
	PrimaryPhone   string  `gorm:"type:varchar(16)"`
	EventType      domain.EventType `gorm:"type:varchar(10);not null"`
	Payload        string  `gorm:"type:text;not null"`
	ResponseStatus *int    `gorm:"type:int"`
	ResponseBody   *string `gorm:"type:text"`
	SentAt         time.Time `gorm:"not null"`
	Trigger        string  `gorm:"type:varchar(255)"`
	Error          bool    `gorm:"not null;default:false"`
	ErrorMessage   *string `gorm:"type:text"`
	Attempt        int     `gorm:"not null;default:1"`
}

func (PostbackLogModel) TableName() string {
	return "postback_logs"
}

// LeadHistoryModel mirrors postback attempts on the lead for fast per-lead
// display. The bigserial id preserves append order.
type LeadHistoryModel struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	LeadID         string  `gorm:"type:uuid;not null"`
	CallUUID       string  `gorm:"column:call_uuid;type:varchar(64)"`
	EventType      domain.EventType `gorm:"type:varchar(10);not null"`
	Payload        string  `gorm:"type:text"`
	ResponseStatus *int    `gorm:"type:int"`
	Error          bool    `gorm:"not null;default:false"`
	ErrorMessage   *string `gorm:"type:text"`
	Attempt        int     `gorm:"not null;default:1"`
	Trigger        string  `gorm:"type:varchar(255)"`
	SentAt         time.Time `gorm:"not null"`
}

func (LeadHistoryModel) TableName() string {
	return "lead_postback_history"
}

// GTIEventModel is the persistence model for gti_events, the export feed.
type GTIEventModel struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	IdempotencyKey   string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Organization     string `gorm:"type:varchar(120);not null"`
	EventTimestamp   time.Time `gorm:"not null"`
	Payload          string `gorm:"type:text;not null"`
	PushStatus       domain.PushStatus `gorm:"type:varchar(20);not null"`
	NextAttemptAfter *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (GTIEventModel) TableName() string {
	return "gti_events"
}

// GTIWebhookConfirmationModel persists every acknowledgment callback,
// repeats included.
type GTIWebhookConfirmationModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	IdempotencyKey string `gorm:"type:varchar(255);not null"`
	Status         string `gorm:"type:varchar(20)"`
	Note           string `gorm:"type:varchar(500)"`
	CallerIP       string `gorm:"column:caller_ip;type:varchar(45)"`
	ReceivedAt     time.Time `gorm:"not null"`
}

func (GTIWebhookConfirmationModel) TableName() string {
	return "gti_webhook_confirmations"
}

// IntegrationLogModel mirrors export/receive API calls for partner
// diagnostics.
type IntegrationLogModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Route     string `gorm:"type:varchar(120);not null"`
	Method    string `gorm:"type:varchar(10);not null"`
	Status    int    `gorm:"not null"`
	CallerIP  string `gorm:"column:caller_ip;type:varchar(45)"`
	Headers   string `gorm:"type:text"`
	Query     string `gorm:"type:text"`
	Body      string `gorm:"type:text"`
	Message   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (IntegrationLogModel) TableName() string {
	return "integration_logs"
}

func leadModelToDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}

	return &domain.Lead{
		ID:                  m.ID,
		Name:                m.Name,
		Phone:               m.Phone,
		CreditScore:         m.CreditScore,
		TotalDebtAmount:     m.TotalDebtAmount,
		Disposition1:        m.Disposition1,
		LeadProgressStatus:  m.LeadProgressStatus,
		RequestedLoanAmount: m.RequestedLoanAmount,
		GTIPrimaryPhone:     m.GTIPrimaryPhone,
		GTICallUUID:         m.GTICallUUID,
		GTILastPostback:     m.GTILastPostback,
	}
}

func postbackLogModelFromDomain(l *domain.PostbackLog) *PostbackLogModel {
	if l == nil {
		return nil
	}

	return &PostbackLogModel{
		ID:             l.ID,
		LeadID:         l.LeadID,
		CallUUID:       l.CallUUID,
		PrimaryPhone:   l.PrimaryPhone,
		EventType:      l.EventType,
		Payload:        l.Payload,
		ResponseStatus: l.ResponseStatus,
		ResponseBody:   l.ResponseBody,
		SentAt:         l.SentAt,
		Trigger:        l.Trigger,
		Error:          l.Error,
		ErrorMessage:   l.ErrorMessage,
		Attempt:        l.Attempt,
	}
}

func postbackLogModelToDomain(m *PostbackLogModel) *domain.PostbackLog {
	if m == nil {
		return nil
	}

	return &domain.PostbackLog{
		ID:             m.ID,
		LeadID:         m.LeadID,
		CallUUID:       m.CallUUID,
		PrimaryPhone:   m.PrimaryPhone,
		EventType:      m.EventType,
		Payload:        m.Payload,
		ResponseStatus: m.ResponseStatus,
		ResponseBody:   m.ResponseBody,
		SentAt:         m.SentAt,
		Trigger:        m.Trigger,
		Error:          m.Error,
		ErrorMessage:   m.ErrorMessage,
		Attempt:        m.Attempt,
	}
}

func historyModelFromDomain(e *domain.LeadHistoryEntry) *LeadHistoryModel {
	if e == nil {
		return nil
	}

	return &LeadHistoryModel{
		ID:             e.ID,
		LeadID:         e.LeadID,
		CallUUID:       e.CallUUID,
		EventType:      e.EventType,
		Payload:        e.Payload,
		ResponseStatus: e.ResponseStatus,
		Error:          e.Error,
		ErrorMessage:   e.ErrorMessage,
		Attempt:        e.Attempt,
		Trigger:        e.Trigger,
		SentAt:         e.SentAt,
	}
}

func historyModelToDomain(m *LeadHistoryModel) *domain.LeadHistoryEntry {
	if m == nil {
		return nil
	}

	return &domain.LeadHistoryEntry{
		ID:             m.ID,
		LeadID:         m.LeadID,
		CallUUID:       m.CallUUID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		ResponseStatus: m.ResponseStatus,
		Error:          m.Error,
		ErrorMessage:   m.ErrorMessage,
		Attempt:        m.Attempt,
		Trigger:        m.Trigger,
		SentAt:         m.SentAt,
	}
}

func eventModelFromDomain(e *domain.GTIEvent) *GTIEventModel {
	if e == nil {
		return nil
	}

	return &GTIEventModel{
		ID:               e.ID,
		IdempotencyKey:   e.IdempotencyKey,
		Organization:     e.Organization,
		EventTimestamp:   e.EventTimestamp,
		Payload:          e.Payload,
		PushStatus:       e.PushStatus,
		NextAttemptAfter: e.NextAttemptAfter,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func eventModelToDomain(m *GTIEventModel) *domain.GTIEvent {
	if m == nil {
		return nil
	}

	return &domain.GTIEvent{
		ID:               m.ID,
		IdempotencyKey:   m.IdempotencyKey,
		Organization:     m.Organization,
		EventTimestamp:   m.EventTimestamp,
		Payload:          m.Payload,
		PushStatus:       m.PushStatus,
		NextAttemptAfter: m.NextAttemptAfter,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func confirmationModelFromDomain(c *domain.GTIWebhookConfirmation) *GTIWebhookConfirmationModel {
	if c == nil {
		return nil
	}

	return &GTIWebhookConfirmationModel{
		ID:             c.ID,
		IdempotencyKey: c.IdempotencyKey,
		Status:         c.Status,
		Note:           c.Note,
		CallerIP:       c.CallerIP,
		ReceivedAt:     c.ReceivedAt,
	}
}

func integrationLogModelFromDomain(l *domain.IntegrationLog) *IntegrationLogModel {
	if l == nil {
		return nil
	}

	return &IntegrationLogModel{
		ID:        l.ID,
		Route:     l.Route,
		Method:    l.Method,
		Status:    l.Status,
		CallerIP:  l.CallerIP,
		Headers:   l.Headers,
		Query:     l.Query,
		Body:      l.Body,
		Message:   l.Message,
		CreatedAt: l.CreatedAt,
	}
}
