package sim

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"regard/internal/tracking"
)

// publisher is the subset of *nats.Conn used by NATSWriter.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSWriter publishes rows as JSON on <prefix>.positions.<id> and
// <prefix>.interpretations.<id>.
type NATSWriter struct {
	pub    publisher
	conn   *nats.Conn
	prefix string
}

// NewNATSWriter connects to url.
func NewNATSWriter(url, prefix string) (*NATSWriter, error) {
	nc, err := nats.Connect(url, nats.Name("regard"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if prefix == "" {
		prefix = "regard"
	}
	return &NATSWriter{pub: nc, conn: nc, prefix: prefix}, nil
}

// WritePosition publishes a position row.
func (w *NATSWriter) WritePosition(row tracking.PositionRow) error {
	return w.publish(fmt.Sprintf("%s.positions.%s", w.prefix, row.EntityID), row)
}

// WriteInterpretation publishes an interpretation row.
func (w *NATSWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	return w.publish(fmt.Sprintf("%s.interpretations.%s", w.prefix, row.EntityID), row)
}

func (w *NATSWriter) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := w.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (w *NATSWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Drain()
}
