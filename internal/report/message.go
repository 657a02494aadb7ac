package report

import (
	"context"
	"time"
)

// Message is the finished report handed to every delivery channel.
type Message struct {
	RunID       string
	Title       string
	Text        string
	Commentary  string
	Result      Result
	Chart       []byte // PNG; nil means the report has no chart
	GeneratedAt time.Time
}

type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}
