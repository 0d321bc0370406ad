// Package nats carries corpus reload events between the indexer and the
// search API.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/resilience"
)

const DefaultReloadSubject = "hybridsearch.index.reload"

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

var _ ports.ReloadNotifier = (*Queue)(nil)

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
	ClientName           string
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := options.ClientName
	if name == "" {
		name = "hybrid-search"
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultReloadSubject
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// reloadEvent is the wire form of a reload notification.
type reloadEvent struct {
	Reason      string    `json:"reason"`
	PublishedAt time.Time `json:"published_at"`
}

func encodeReloadEvent(reason string, at time.Time) ([]byte, error) {
	return json.Marshal(reloadEvent{Reason: reason, PublishedAt: at.UTC()})
}

// decodeReloadEvent accepts the JSON form and, for hand-published messages,
// a bare reason string.
func decodeReloadEvent(data []byte) reloadEvent {
	var ev reloadEvent
	if err := json.Unmarshal(data, &ev); err == nil {
		return ev
	}
	return reloadEvent{Reason: strings.TrimSpace(string(data))}
}

func (q *Queue) PublishReload(ctx context.Context, reason string) error {
	payload, err := encodeReloadEvent(reason, time.Now())
	if err != nil {
		return fmt.Errorf("encode reload event: %w", err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return q.conn.FlushTimeout(5 * time.Second)
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	q.logger.Info("reload_event_published", "subject", q.subject, "reason", reason)
	return nil
}

// SubscribeReload delivers every reload event to handler until ctx ends.
// Each subscriber gets every event, so every API replica reloads.
func (q *Queue) SubscribeReload(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		ev := decodeReloadEvent(msg.Data)
		q.logger.Info("reload_event_received", "reason", ev.Reason, "published_at", ev.PublishedAt)
		if err := handler(ctx, ev.Reason); err != nil {
			q.logger.Error("reload_handler_failed", "reason", ev.Reason, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}
