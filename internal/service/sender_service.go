package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type EmailMessage struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *logrus.Logger
}

func NewSendGridSender(apiKey, fromEmail, fromName string, log *logrus.Logger) *SendGridSender {
	return newSendGridSender(apiKey, "", fromEmail, fromName, log)
}

// newSendGridSender targets host instead of the public API when it is set.
func newSendGridSender(apiKey, host, fromEmail, fromName string, log *logrus.Logger) *SendGridSender {
	client := sendgrid.NewSendClient(apiKey)
	if host != "" {
		request := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
		request.Method = "POST"
		client = &sendgrid.Client{Request: request}
	}
	return &SendGridSender{
		client: client,
		from:   mail.NewEmail(fromName, fromEmail),
		log:    log,
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.PlainText, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email to %s via SendGrid: %w", msg.ToEmail, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	s.log.WithFields(logrus.Fields{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
		"status":  response.StatusCode,
	}).Info("email sent")
	return nil
}

// TwilioSender delivers SMS through the Twilio messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	log    *logrus.Logger
}

func NewTwilioSender(accountSID, authToken, from string, log *logrus.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{client: client, from: from, log: log}
}

// SendSMS gives up when ctx expires. The Twilio client has no context
// support, so the call itself may still complete in the background.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		s.log.WithField("to", to).Warn("destination number is not in E.164 format, SMS may fail")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	type result struct {
		resp *openapi.ApiV2010Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.client.Api.CreateMessage(params)
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sending SMS to %s: %w", to, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("sending SMS to %s via Twilio: %w", to, r.err)
		}
		entry := s.log.WithField("to", to)
		if r.resp != nil && r.resp.Sid != nil {
			entry = entry.WithField("sid", *r.resp.Sid)
		}
		entry.Info("sms sent")
		return nil
	}
}
