package queue

import (
	"fmt"
	"strings"

	"github.com/reddlead/gti-pipeline/internal/domain"
)

// PostbackJob is one queued outbound delivery. Payload is the exact JSON
// body to send; Attempt is 1-based and incremented on each retry.
type PostbackJob struct {
	LeadID       string
	EventType    domain.EventType
	CallUUID     string
	PrimaryPhone string
	Payload      []byte
	Attempt      int
	Trigger      string
}

func (j PostbackJob) Validate() error {
	if strings.TrimSpace(j.LeadID) == "" {
		return fmt.Errorf("lead id is required")
	}
	if !j.EventType.IsValid() {
		return fmt.Errorf("invalid event type %q", j.EventType)
	}
	if strings.TrimSpace(j.CallUUID) == "" {
		return fmt.Errorf("call uuid is required")
	}
	if len(j.Payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if j.Attempt < 1 {
		return fmt.Errorf("attempt must be 1-based, got %d", j.Attempt)
	}
	return nil
}
