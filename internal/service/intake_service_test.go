package service

import (
	"context"
	"errors"
	"testing"

	"github.com/reddlead/gti-pipeline/internal/domain"
)

func TestIntakeServiceHandleArrivalNewLead(t *testing.T) {
	t.Parallel()

	var touchedPhone, touchedUUID string
	callTracker := &fakeTracker{
		touchArrivalFn: func(ctx context.Context, primaryPhone, callUUID string) error {
			touchedPhone = primaryPhone
			touchedUUID = callUUID
			return nil
		},
	}

	var gotVariants []string
	leads := &fakeLeadRepo{
		countByPhoneVariantsFn: func(ctx context.Context, variants []string) (int64, error) {
			gotVariants = variants
			return 0, nil
		},
	}

	svc, err := NewIntakeService(callTracker, leads, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}

	status, err := svc.HandleArrival(context.Background(), "(555) 123-4567", "call-abc")
	if err != nil {
		t.Fatalf("HandleArrival() error = %v", err)
	}
	if status != StatusNewLead {
		t.Fatalf("status = %q, want %q", status, StatusNewLead)
	}
	if touchedPhone != "+15551234567" {
		t.Fatalf("tracker phone = %q, want normalized +15551234567", touchedPhone)
	}
	if touchedUUID != "call-abc" {
		t.Fatalf("tracker call uuid = %q", touchedUUID)
	}

	want := map[string]bool{}
	for _, v := range gotVariants {
		want[v] = true
	}
	for _, v := range []string{"(555) 123-4567", "5551234567", "+15551234567", "15551234567"} {
		if !want[v] {
			t.Fatalf("variants %v missing %q", gotVariants, v)
		}
	}
}

func TestIntakeServiceHandleArrivalDuplicate(t *testing.T) {
	t.Parallel()

	callTracker := &fakeTracker{}
	leads := &fakeLeadRepo{
		countByPhoneVariantsFn: func(ctx context.Context, variants []string) (int64, error) {
			return 3, nil
		},
	}

	svc, err := NewIntakeService(callTracker, leads, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}

	status, err := svc.HandleArrival(context.Background(), "5551234567", "call-1")
	if err != nil {
		t.Fatalf("HandleArrival() error = %v", err)
	}
	if status != StatusDuplicate {
		t.Fatalf("status = %q, want %q", status, StatusDuplicate)
	}
}

func TestIntakeServiceHandleArrivalValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		primaryNumber string
		callUUID      string
	}{
		{name: "missing number", primaryNumber: "", callUUID: "call-1"},
		{name: "blank number", primaryNumber: "   ", callUUID: "call-1"},
		{name: "missing call uuid", primaryNumber: "5551234567", callUUID: ""},
		{name: "short number", primaryNumber: "12345", callUUID: "call-1"},
		{name: "non-nanp eleven digits", primaryNumber: "25551234567", callUUID: "call-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			touched := false
			callTracker := &fakeTracker{
				touchArrivalFn: func(ctx context.Context, primaryPhone, callUUID string) error {
					touched = true
					return nil
				},
			}

			svc, err := NewIntakeService(callTracker, &fakeLeadRepo{}, nil)
			if err != nil {
				t.Fatalf("NewIntakeService() error = %v", err)
			}

			_, err = svc.HandleArrival(context.Background(), tc.primaryNumber, tc.callUUID)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if touched {
				t.Fatal("tracker should not be touched on validation failure")
			}
		})
	}
}

func TestIntakeServiceHandleArrivalTrackerError(t *testing.T) {
	t.Parallel()

	callTracker := &fakeTracker{
		touchArrivalFn: func(ctx context.Context, primaryPhone, callUUID string) error {
			return errors.New("redis down")
		},
	}

	svc, err := NewIntakeService(callTracker, &fakeLeadRepo{}, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}

	_, err = svc.HandleArrival(context.Background(), "5551234567", "call-1")
	if err == nil {
		t.Fatal("expected error when tracker write fails")
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Fatalf("tracker error should not look like validation: %v", err)
	}
}
