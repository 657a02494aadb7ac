package slackbot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/slack-go/slack"

	"timereport/internal/report"
)

// API is the part of *slack.Client the deliverer uses.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Deliverer posts reports to one channel. With a chart the text goes out as
// the upload's initial comment, otherwise as a plain message.
type Deliverer struct {
	API       API
	ChannelID string
}

func NewDeliverer(token, channelID string, opts ...slack.Option) *Deliverer {
	return &Deliverer{API: slack.New(token, opts...), ChannelID: channelID}
}

func (d *Deliverer) Name() string { return "slack" }

func (d *Deliverer) Deliver(ctx context.Context, msg report.Message) error {
	text := toMrkdwn(msg.Text)
	if msg.Chart == nil {
		_, ts, err := d.API.PostMessageContext(ctx, d.ChannelID, slack.MsgOptionText(text, false))
		if err != nil {
			return fmt.Errorf("posting message: %w", err)
		}
		log.Printf("slack report posted channel=%s ts=%s run=%s", d.ChannelID, ts, msg.RunID)
		return nil
	}

	filename := fmt.Sprintf("%s_%s.png", msg.Result.Kind, msg.Result.Current.Start.Format("20060102"))
	file, err := d.API.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:         bytes.NewReader(msg.Chart),
		FileSize:       len(msg.Chart),
		Filename:       filename,
		Channel:        d.ChannelID,
		Title:          msg.Title,
		InitialComment: text,
	})
	if err != nil {
		return fmt.Errorf("uploading chart: %w", err)
	}
	log.Printf("slack report uploaded channel=%s file=%s run=%s", d.ChannelID, file.ID, msg.RunID)
	return nil
}

var boldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// toMrkdwn converts the report's light markdown to Slack mrkdwn: headings
// and **bold** become *bold*, "- " bullets become "• ".
func toMrkdwn(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			line = "*" + boldRe.ReplaceAllString(strings.TrimPrefix(trimmed, "### "), "$1") + "*"
		case strings.HasPrefix(trimmed, "- "):
			line = "• " + boldRe.ReplaceAllString(strings.TrimPrefix(trimmed, "- "), "*$1*")
		default:
			line = boldRe.ReplaceAllString(line, "*$1*")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
