package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestReloadEventRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*3600))
	data, err := encodeReloadEvent("indexer build", at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev := decodeReloadEvent(data)
	if ev.Reason != "indexer build" || !ev.PublishedAt.Equal(at) {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDecodeReloadEventAcceptsBareReason(t *testing.T) {
	ev := decodeReloadEvent([]byte("  manual  "))
	if ev.Reason != "manual" || !ev.PublishedAt.IsZero() {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestWrapTemporaryForConnectionErrors(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	permanent := errors.New("invalid subject")
	if got := wrapTemporaryIfNeeded(permanent); got != permanent {
		t.Fatalf("permanent error must pass through, got %v", got)
	}
	if class := classifyNATSError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not be retried or recorded: %+v", class)
	}
}
