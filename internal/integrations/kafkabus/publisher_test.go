package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timereport/internal/domain"
	"timereport/internal/report"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testMessage() report.Message {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	rows := []domain.ComparisonRow{{Category: "Work", CurrentCount: 2, CurrentHours: 6 * domain.Hour, Ratio: 100}}
	return report.Message{
		RunID:       "run-1",
		Title:       "Weekly report",
		Commentary:  "Work only.",
		GeneratedAt: start.AddDate(0, 0, 7),
		Result: report.Result{
			Kind:        report.KindWeekly,
			Current:     domain.TimeWindow{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Millisecond)},
			Previous:    domain.TimeWindow{Start: start.AddDate(0, 0, -7), End: start.Add(-time.Millisecond)},
			RecordCount: 4,
			Rows:        rows,
			Totals:      domain.ComparisonRow{CurrentCount: 2, CurrentHours: 6 * domain.Hour, Ratio: 100},
		},
	}
}

func TestPublisherWritesReportEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, team: "Platform", topic: "reports"}

	require.NoError(t, p.Deliver(context.Background(), testMessage()))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "weekly", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "run-1", string(msg.Headers[0].Value))

	var ev ReportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "Platform", ev.Team)
	assert.Equal(t, 4, ev.RecordCount)
	require.Len(t, ev.Rows, 1)
	assert.Equal(t, domain.Category("Work"), ev.Rows[0].Category)
	assert.Equal(t, 6*domain.Hour, ev.Rows[0].CurrentHours)
	assert.True(t, ev.WindowStart.Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &raw))
	assert.Equal(t, 6.0, raw["totals"].(map[string]any)["current_hours"])
}

func TestPublisherEmptyRowsEncodeAsArray(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, topic: "reports"}
	msg := testMessage()
	msg.Result.Rows = nil

	require.NoError(t, p.Deliver(context.Background(), msg))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &raw))
	assert.Equal(t, []any{}, raw["rows"])
}

func TestPublisherPropagatesWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w, topic: "reports"}
	err := p.Deliver(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing to reports")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisherConfiguresWriter(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "reports", "Platform")
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "reports", kw.Topic)
	assert.Equal(t, kafka.RequireOne, kw.RequiredAcks)
	assert.Equal(t, "kafka", p.Name())
}
