package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "docnodes.build"

// NATSSink publishes each event as JSON on "<prefix>.<type>", for example
// docnodes.build.page.failed.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSink connects to url. An empty prefix uses DefaultSubject.
func NewNATSSink(url, prefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("docnodes"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS event publisher connected", "url", url, "subject", subjectPrefix(prefix))
	return &NATSSink{conn: conn, prefix: subjectPrefix(prefix)}, nil
}

func subjectPrefix(prefix string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return DefaultSubject
	}
	return prefix
}

// Subject returns the subject an event of type typ is published on.
func (s *NATSSink) Subject(typ string) string {
	return s.prefix + "." + typ
}

func (s *NATSSink) Emit(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := nats.NewMsg(s.Subject(e.Type))
	msg.Data = data
	msg.Header.Set("Docnodes-Build-Id", e.BuildID)
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes pending messages and drops the connection.
func (s *NATSSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.conn.FlushWithContext(ctx)
	s.conn.Close()
	return err
}
