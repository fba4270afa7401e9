package domain

import (
	"strings"
	"time"
)

// DisposePayload is the outbound postback body for a final disposition
// outcome. Field names match the dialer contract exactly.
type DisposePayload struct {
	CallUUID            string   `json:"call_uuid"`
	FullName            string   `json:"full_name"`
	CreditScore         *int     `json:"redd_credit_score"`
	DebtAmount          *float64 `json:"redd_debt_amount"`
	Disposition         *string  `json:"redd_disposition"`
	LeadProgressStatus  *string  `json:"redd_lead_progress_status"`
	RequestedLoanAmount *float64 `json:"requested_loan_amount"`
	EventType           string   `json:"event_type"`
	EventTimestamp      string   `json:"event_timestamp"`
}

// ProgressPayload is the outbound postback body for an intermediate status
// update. Same envelope as dispose with the variant fields swapped.
type ProgressPayload struct {
	CallUUID            string   `json:"call_uuid"`
	FullName            string   `json:"full_name"`
	CreditScore         *int     `json:"redd_credit_score"`
	DebtAmount          *float64 `json:"redd_debt_amount"`
	Disposition         *string  `json:"redd_disposition"`
	LeadProgressStatus  *string  `json:"redd_lead_progress_status"`
	RequestedLoanAmount *float64 `json:"requested_loan_amount"`
	EventType           string   `json:"event_type"`
	EventTimestamp      string   `json:"event_timestamp"`
}

// BuildDisposePayload constructs the dispose payload for a lead. Pure and
// deterministic given the lead state, correlation id, and clock reading.
func BuildDisposePayload(lead *Lead, callUUID string, now time.Time) DisposePayload {
	var disposition *string
	if lead.Disposition1 != "" {
		value := lead.Disposition1
		disposition = &value
	}

	return DisposePayload{
		CallUUID:            callUUID,
		FullName:            lead.Name,
		CreditScore:         lead.CreditScore,
		DebtAmount:          lead.TotalDebtAmount,
		Disposition:         disposition,
		LeadProgressStatus:  nil,
		RequestedLoanAmount: nil,
		EventType:           EventTypeDispose.String(),
		EventTimestamp:      now.UTC().Format(time.RFC3339),
	}
}

// BuildProgressPayload constructs the progress payload for a lead. The loan
// amount is subject to the progress-status allow-list.
func BuildProgressPayload(lead *Lead, callUUID string, now time.Time) ProgressPayload {
	var status *string
	if lead.LeadProgressStatus != "" {
		value := lead.LeadProgressStatus
		status = &value
	}

	return ProgressPayload{
		CallUUID:            callUUID,
		FullName:            lead.Name,
		CreditScore:         lead.CreditScore,
		DebtAmount:          lead.TotalDebtAmount,
		Disposition:         nil,
		LeadProgressStatus:  status,
		RequestedLoanAmount: applyProgressRules(lead.LeadProgressStatus, lead.RequestedLoanAmount),
		EventType:           EventTypeProgress.String(),
		EventTimestamp:      now.UTC().Format(time.RFC3339),
	}
}

// applyProgressRules decides whether the requested loan amount may appear in
// a progress payload. This is an allow-list: only the two loan-request
// statuses pass the amount through; every other status, including
// unrecognized future ones, forces null. Leaking a stale amount under a new
// status string would be a correctness regression, so the default is deny.
func applyProgressRules(progressStatus string, amount *float64) *float64 {
	status := strings.ToUpper(strings.TrimSpace(progressStatus))
	switch status {
	case "REQUEST FOR LOAN", "RFL":
		return amount
	}
	return nil
}
