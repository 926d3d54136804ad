// Package mail delivers one-time passcodes out of band.
package mail

import (
	"context"
	"fmt"
	"time"

	"assetdesk/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer dispatches a passcode to an email address.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

const otpSubject = "Your login code"

func otpBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}

// LogMailer writes passcodes to the log. Development only.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.logger.Info("OTP mail (not sent)", zap.String("email", email), zap.String("code", code))
	return nil
}

// SMTPMailer sends passcodes through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	ttl    time.Duration
}

func NewSMTPMailer(host string, port int, username, password, from string, codeTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		ttl:    codeTTL,
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", otpSubject)
	msg.SetBody("text/plain", otpBody(code, m.ttl))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send OTP mail: %w", err)
	}
	return nil
}

// Enqueuer is the part of *asynq.Client the queue mailer needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueMailer hands passcodes to the background mail worker.
type QueueMailer struct {
	client Enqueuer
	ttl    time.Duration
}

func NewQueueMailer(client Enqueuer, codeTTL time.Duration) *QueueMailer {
	return &QueueMailer{client: client, ttl: codeTTL}
}

func (m *QueueMailer) SendOTP(ctx context.Context, email, code string) error {
	task, opts, err := tasks.NewOTPMailTask(tasks.OTPMailPayload{Email: email, Code: code}, m.ttl)
	if err != nil {
		return fmt.Errorf("failed to build OTP mail task: %w", err)
	}
	if _, err := m.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue OTP mail: %w", err)
	}
	return nil
}
