package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/voltmile/claimflow/internal/adapter/fsm"
	"github.com/voltmile/claimflow/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Can't ship parts before approval.
	_, err := v.Apply(ctx, domain.StatusUnderReview, domain.EventShipParts)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventShipParts {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventShipParts)
	}
	if trErr.Current != domain.StatusUnderReview {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusUnderReview)
	}
}

func TestValidator_NoSkippingStates(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Every transition requires the exact documented predecessor.
	invalid := []struct {
		from  domain.Status
		event domain.Event
	}{
		{domain.StatusPending, domain.EventApprove},
		{domain.StatusApproved, domain.EventReceiveParts},
		{domain.StatusPartsShipped, domain.EventStartRepair},
		{domain.StatusRepairInProgress, domain.EventHandOver},
		{domain.StatusRepairCompleted, domain.EventClose},
	}
	for _, tc := range invalid {
		if _, err := v.Apply(ctx, tc.from, tc.event); err == nil {
			t.Errorf("Apply(%q, %q) succeeded, want TransitionError", tc.from, tc.event)
		}
	}
}

func TestValidator_NoEscapeFromTerminalStates(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	terminal := []domain.Status{domain.StatusRejected, domain.StatusCompleted, domain.StatusCancelled}
	allEvents := []domain.Event{
		domain.EventSubmitForReview, domain.EventApprove, domain.EventReject,
		domain.EventShipParts, domain.EventReceiveParts, domain.EventRejectParts,
		domain.EventStartRepair, domain.EventHoldRepair, domain.EventResumeRepair,
		domain.EventCompleteRepair, domain.EventUploadResults, domain.EventReadyHandover,
		domain.EventHandOver, domain.EventClose, domain.EventCancel,
	}

	for _, s := range terminal {
		for _, e := range allEvents {
			if _, err := v.Apply(ctx, s, e); err == nil {
				t.Errorf("Apply(%q, %q) succeeded, terminal states must be final", s, e)
			}
		}
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusPending, domain.EventSubmitForReview, domain.StatusUnderReview},
		{domain.StatusUnderReview, domain.EventApprove, domain.StatusApproved},
		{domain.StatusApproved, domain.EventShipParts, domain.StatusPartsShipped},
		{domain.StatusPartsShipped, domain.EventReceiveParts, domain.StatusPartsReceived},
		{domain.StatusPartsReceived, domain.EventStartRepair, domain.StatusRepairInProgress},
		{domain.StatusRepairInProgress, domain.EventHoldRepair, domain.StatusRepairOnHold},
		{domain.StatusRepairOnHold, domain.EventResumeRepair, domain.StatusRepairInProgress},
		{domain.StatusRepairInProgress, domain.EventCompleteRepair, domain.StatusRepairCompleted},
		{domain.StatusRepairCompleted, domain.EventUploadResults, domain.StatusUploadingResults},
		{domain.StatusUploadingResults, domain.EventReadyHandover, domain.StatusReadyForHandover},
		{domain.StatusReadyForHandover, domain.EventHandOver, domain.StatusHandedOver},
		{domain.StatusHandedOver, domain.EventClose, domain.StatusCompleted},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_LegacyAliasesAcceptedAsInput(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// "in_progress" is a deprecated spelling of repair_in_progress.
	got, err := v.Apply(ctx, domain.StatusAliasInProgress, domain.EventHoldRepair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.StatusRepairOnHold {
		t.Errorf("got %q, want %q", got, domain.StatusRepairOnHold)
	}

	// "closed" is a deprecated spelling of completed: terminal.
	if _, err := v.Apply(ctx, domain.StatusAliasClosed, domain.EventCancel); err == nil {
		t.Error("cancel from closed alias succeeded, want error")
	}
}

func TestValidator_CancelFromPartsRejected(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	got, err := v.Apply(ctx, domain.StatusPartsRejected, domain.EventCancel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.StatusCancelled {
		t.Errorf("got %q, want %q", got, domain.StatusCancelled)
	}
}
