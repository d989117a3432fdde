package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"

	"vehirent/internal/db"
	"vehirent/internal/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

const displayDate = "02 Jan 2006"

// Notifier renders and sends user facing messages. Either sender may be nil,
// in which case that channel is skipped.
type Notifier struct {
	Email    EmailSender
	SMS      SMSSender
	Currency string
	log      *logrus.Logger
	tmpl     *template.Template
	now      func() time.Time
}

func NewNotifier(email EmailSender, sms SMSSender, currency string, log *logrus.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing notification templates: %w", err)
	}
	if email == nil {
		log.Warn("email sender not configured, emails will not be sent")
	}
	if sms == nil {
		log.Warn("SMS sender not configured, text messages will not be sent")
	}
	return &Notifier{Email: email, SMS: sms, Currency: currency, log: log, tmpl: tmpl, now: time.Now}, nil
}

type notification struct {
	template string
	subject  string
	sms      string
	toEmail  string
	toName   string
	toPhone  string
	data     entities.NotificationData
}

func (n *Notifier) bookingData(user *db.User, vehicle *db.Vehicle, b *db.Booking) entities.NotificationData {
	days := int(b.EndDate.Sub(b.StartDate).Hours()/24) + 1
	return entities.NotificationData{
		UserName:           user.Name,
		BookingID:          b.ID,
		VehicleTitle:       vehicle.Title,
		StartDateFormatted: b.StartDate.Format(displayDate),
		EndDateFormatted:   b.EndDate.Format(displayDate),
		Days:               days,
		TotalPrice:         fmt.Sprintf("%.2f", b.TotalPrice),
		Currency:           n.Currency,
		CurrentYear:        n.now().Year(),
	}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, user *db.User, vehicle *db.Vehicle, b *db.Booking) error {
	data := n.bookingData(user, vehicle, b)
	return n.send(ctx, notification{
		template: "booking_confirmed.html",
		subject:  fmt.Sprintf("Your VehiRent booking #%d is confirmed", b.ID),
		sms: fmt.Sprintf("VehiRent: booking #%d for %s is confirmed, %s to %s.",
			b.ID, vehicle.Title, data.StartDateFormatted, data.EndDateFormatted),
		toEmail: user.Email, toName: user.Name, toPhone: user.Phone,
		data: data,
	})
}

func (n *Notifier) BookingCancelled(ctx context.Context, user *db.User, vehicle *db.Vehicle, b *db.Booking) error {
	data := n.bookingData(user, vehicle, b)
	return n.send(ctx, notification{
		template: "booking_cancelled.html",
		subject:  fmt.Sprintf("Your VehiRent booking #%d was cancelled", b.ID),
		sms:      fmt.Sprintf("VehiRent: booking #%d for %s has been cancelled.", b.ID, vehicle.Title),
		toEmail:  user.Email, toName: user.Name, toPhone: user.Phone,
		data: data,
	})
}

func (n *Notifier) BookingReminder(ctx context.Context, t entities.ReminderTarget) error {
	user := &db.User{Name: t.UserName, Email: t.UserEmail, Phone: t.UserPhone}
	vehicle := &db.Vehicle{Title: t.VehicleTitle}
	b := &db.Booking{ID: t.BookingID, StartDate: t.StartDate, EndDate: t.EndDate, TotalPrice: t.TotalPrice}
	data := n.bookingData(user, vehicle, b)
	return n.send(ctx, notification{
		template: "booking_reminder.html",
		subject:  fmt.Sprintf("Reminder: your %s rental starts tomorrow", t.VehicleTitle),
		sms:      fmt.Sprintf("VehiRent: reminder, your rental of %s starts tomorrow (%s).", t.VehicleTitle, data.StartDateFormatted),
		toEmail:  t.UserEmail, toName: t.UserName, toPhone: t.UserPhone,
		data: data,
	})
}

// InvoiceIssued emails the invoice link. No SMS is sent for invoices.
func (n *Notifier) InvoiceIssued(ctx context.Context, user *db.User, vehicle *db.Vehicle, b *db.Booking, url string) error {
	data := n.bookingData(user, vehicle, b)
	data.InvoiceURL = url
	return n.send(ctx, notification{
		template: "invoice_issued.html",
		subject:  fmt.Sprintf("Invoice for VehiRent booking #%d", b.ID),
		toEmail:  user.Email, toName: user.Name,
		data: data,
	})
}

func (n *Notifier) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func (n *Notifier) send(ctx context.Context, msg notification) error {
	var errs []error

	if n.Email != nil && msg.toEmail != "" {
		html, err := n.render(msg.template, msg.data)
		if err != nil {
			return err
		}
		plain := fmt.Sprintf("Hello %s,\n\n%s\n\nBooking #%d\nVehicle: %s\nFrom: %s\nTo: %s\nTotal: %s %s\n",
			msg.data.UserName, msg.subject, msg.data.BookingID, msg.data.VehicleTitle,
			msg.data.StartDateFormatted, msg.data.EndDateFormatted, msg.data.TotalPrice, msg.data.Currency)
		if msg.data.InvoiceURL != "" {
			plain += "Invoice: " + msg.data.InvoiceURL + "\n"
		}
		err = n.Email.SendEmail(ctx, EmailMessage{
			ToEmail:   msg.toEmail,
			ToName:    msg.toName,
			Subject:   msg.subject,
			PlainText: plain,
			HTML:      html,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	if n.SMS != nil && msg.toPhone != "" && msg.sms != "" {
		if err := n.SMS.SendSMS(ctx, msg.toPhone, msg.sms); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
