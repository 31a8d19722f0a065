package server

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/velora-sim/velora/pkg/model"
)

// NatsPublisher pushes snapshots to a NATS subject per race, so
// external dashboards can follow a race without polling.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("velora"),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", url, err)
	}
	return &NatsPublisher{conn: conn, subject: "velora.race"}, nil
}

func (p *NatsPublisher) Publish(snap *model.Snapshot) error {
	data, err := oj.Marshal(snap)
	if err != nil {
		return err
	}
	return p.conn.Publish(fmt.Sprintf("%s.%s", p.subject, snap.RaceID), data)
}

func (p *NatsPublisher) Close() {
	p.conn.Drain() //nolint:errcheck // shutdown path
}
