// Package mail delivers reports over SMTP as a multipart message with the
// chart attached.
package mail

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"timereport/internal/config"
	"timereport/internal/report"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Deliverer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string

	send sendFunc
	now  func() time.Time
}

func NewDeliverer(cfg config.Config) *Deliverer {
	return &Deliverer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
	}
}

func (d *Deliverer) Name() string { return "mail" }

func (d *Deliverer) Deliver(ctx context.Context, msg report.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	env := envelope{
		From:    d.From,
		To:      d.To,
		Subject: msg.Title,
		Date:    now(),
		Body:    msg.Text,
	}
	if msg.Chart != nil {
		env.Attach = &attachment{
			Filename:    fmt.Sprintf("%s_%s.png", msg.Result.Kind, msg.Result.Current.Start.Format("20060102")),
			ContentType: "image/png",
			Data:        msg.Chart,
		}
	}

	var auth smtp.Auth
	if d.Username != "" {
		auth = smtp.PlainAuth("", d.Username, d.Password, d.Host)
	}
	send := d.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	if err := send(addr, auth, d.From, d.To, []byte(buildEML(env))); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	log.Printf("mail report sent to=%d run=%s", len(d.To), msg.RunID)
	return nil
}
