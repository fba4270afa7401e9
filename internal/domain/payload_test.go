package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func testLead() *Lead {
	score := 712
	debt := 24500.50
	loan := 10000.0
	return &Lead{
		ID:                  "lead-1",
		Name:                "Jordan Avery",
		Phone:               "+15551234567",
		CreditScore:         &score,
		TotalDebtAmount:     &debt,
		Disposition1:        "Interested",
		LeadProgressStatus:  "Request for Loan",
		RequestedLoanAmount: &loan,
	}
}

func TestBuildDisposePayload(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := BuildDisposePayload(testLead(), "uuid-1", now)

	if payload.EventType != "dispose" {
		t.Fatalf("event type = %q, want dispose", payload.EventType)
	}
	if payload.CallUUID != "uuid-1" {
		t.Fatalf("call uuid = %q, want uuid-1", payload.CallUUID)
	}
	if payload.Disposition == nil || *payload.Disposition != "Interested" {
		t.Fatalf("disposition = %v, want Interested", payload.Disposition)
	}
	if payload.LeadProgressStatus != nil {
		t.Fatalf("progress status = %v, want nil on dispose", payload.LeadProgressStatus)
	}
	if payload.RequestedLoanAmount != nil {
		t.Fatalf("loan amount = %v, want nil on dispose", payload.RequestedLoanAmount)
	}
	if payload.EventTimestamp != "2025-06-01T12:00:00Z" {
		t.Fatalf("event timestamp = %q", payload.EventTimestamp)
	}
}

func TestBuildDisposePayloadWireFields(t *testing.T) {
	t.Parallel()

	payload := BuildDisposePayload(testLead(), "uuid-1", time.Unix(1_700_000_000, 0))
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	for _, key := range []string{
		"call_uuid",
		"full_name",
		"redd_credit_score",
		"redd_debt_amount",
		"redd_disposition",
		"redd_lead_progress_status",
		"requested_loan_amount",
		"event_type",
		"event_timestamp",
	} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("payload missing wire field %q", key)
		}
	}
	if fields["redd_lead_progress_status"] != nil {
		t.Fatalf("redd_lead_progress_status = %v, want null", fields["redd_lead_progress_status"])
	}
}

func TestBuildProgressPayloadLoanAmountAllowList(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   string
		wantKept bool
	}{
		{name: "request for loan passes", status: "Request for Loan", wantKept: true},
		{name: "rfl passes", status: "rfl", wantKept: true},
		{name: "rfl uppercase passes", status: "RFL", wantKept: true},
		{name: "request for loan padded passes", status: "  request for loan  ", wantKept: true},
		{name: "sale forced null", status: "Sale", wantKept: false},
		{name: "sale long play forced null", status: "Sale Long Play", wantKept: false},
		{name: "immediate enrollment forced null", status: "Immediate Enrollment", wantKept: false},
		{name: "callback forced null", status: "Callback", wantKept: false},
		{name: "callback needed forced null", status: "Callback Needed", wantKept: false},
		{name: "hang-up forced null", status: "Hang-up", wantKept: false},
		{name: "empty status forced null", status: "", wantKept: false},
		{name: "future unknown status forced null", status: "Totally New Status", wantKept: false},
	}

	now := time.Unix(1_700_000_000, 0)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lead := testLead()
			lead.LeadProgressStatus = tc.status

			payload := BuildProgressPayload(lead, "uuid-2", now)

			if tc.wantKept {
				if payload.RequestedLoanAmount == nil || *payload.RequestedLoanAmount != 10000.0 {
					t.Fatalf("loan amount = %v, want 10000", payload.RequestedLoanAmount)
				}
				return
			}
			if payload.RequestedLoanAmount != nil {
				t.Fatalf("loan amount = %v, want nil for status %q", *payload.RequestedLoanAmount, tc.status)
			}
		})
	}
}

func TestBuildProgressPayloadEnvelope(t *testing.T) {
	t.Parallel()

	payload := BuildProgressPayload(testLead(), "uuid-3", time.Unix(1_700_000_000, 0))

	if payload.EventType != "progress" {
		t.Fatalf("event type = %q, want progress", payload.EventType)
	}
	if payload.Disposition != nil {
		t.Fatalf("disposition = %v, want nil on progress", payload.Disposition)
	}
	if payload.LeadProgressStatus == nil || *payload.LeadProgressStatus != "Request for Loan" {
		t.Fatalf("progress status = %v, want Request for Loan", payload.LeadProgressStatus)
	}
}
