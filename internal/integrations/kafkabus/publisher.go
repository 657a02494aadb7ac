// Package kafkabus publishes each finished report as a JSON event.
package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"timereport/internal/domain"
	"timereport/internal/report"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReportEvent is the payload of one published report.
type ReportEvent struct {
	RunID         string                 `json:"run_id"`
	Kind          string                 `json:"kind"`
	Team          string                 `json:"team"`
	Title         string                 `json:"title"`
	WindowStart   time.Time              `json:"window_start"`
	WindowEnd     time.Time              `json:"window_end"`
	PreviousStart time.Time              `json:"previous_start"`
	PreviousEnd   time.Time              `json:"previous_end"`
	GeneratedAt   time.Time              `json:"generated_at"`
	RecordCount   int                    `json:"record_count"`
	Totals        domain.ComparisonRow   `json:"totals"`
	Rows          []domain.ComparisonRow `json:"rows"`
	Commentary    string                 `json:"commentary"`
}

func newReportEvent(msg report.Message, team string) ReportEvent {
	rows := msg.Result.Rows
	if rows == nil {
		rows = []domain.ComparisonRow{}
	}
	return ReportEvent{
		RunID:         msg.RunID,
		Kind:          string(msg.Result.Kind),
		Team:          team,
		Title:         msg.Title,
		WindowStart:   msg.Result.Current.Start,
		WindowEnd:     msg.Result.Current.End,
		PreviousStart: msg.Result.Previous.Start,
		PreviousEnd:   msg.Result.Previous.End,
		GeneratedAt:   msg.GeneratedAt,
		RecordCount:   msg.Result.RecordCount,
		Totals:        msg.Result.Totals,
		Rows:          rows,
		Commentary:    msg.Commentary,
	}
}

type Publisher struct {
	writer messageWriter
	team   string
	topic  string
}

func NewPublisher(brokers []string, topic, team string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		team:  team,
		topic: topic,
	}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Deliver(ctx context.Context, msg report.Message) error {
	value, err := json.Marshal(newReportEvent(msg, p.team))
	if err != nil {
		return fmt.Errorf("marshaling report event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(string(msg.Result.Kind)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(msg.RunID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}
	log.Printf("kafka report published topic=%s run=%s bytes=%d", p.topic, msg.RunID, len(value))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
