package context_test

import (
	"context"
	"testing"
	"time"

	infracontext "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/context"
)

func TestWithPingTimeout(t *testing.T) {
	ctx, cancel := infracontext.WithPingTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if remaining := time.Until(deadline); remaining > infracontext.DefaultPingTimeout {
		t.Errorf("deadline too far away: %v", remaining)
	}
}

func TestWithShutdownTimeout_CancelledParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	cancelParent()

	ctx, cancel := infracontext.WithShutdownTimeout(parent)
	defer cancel()

	if ctx.Err() != nil {
		t.Fatalf("shutdown context should outlive a cancelled parent, got %v", ctx.Err())
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}
}
