package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vehirent/internal/db"
	"vehirent/internal/entities"
)

type InvoiceService struct {
	Store    InvoiceStore
	Users    UserStore
	Vehicles VehicleStore
	Notifier *Notifier
	log      *logrus.Logger
	tmpl     *template.Template
	now      func() time.Time
}

func NewInvoiceService(store InvoiceStore, users UserStore, vehicles VehicleStore, notifier *Notifier, log *logrus.Logger) (*InvoiceService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("parsing invoice template: %w", err)
	}
	return &InvoiceService{
		Store:    store,
		Users:    users,
		Vehicles: vehicles,
		Notifier: notifier,
		log:      log,
		tmpl:     tmpl,
		now:      time.Now,
	}, nil
}

// Issue renders the invoice for a paid booking, stores it and emails the link.
func (s *InvoiceService) Issue(ctx context.Context, b *db.Booking, p *db.Payment) (string, error) {
	user, err := s.Users.GetUserByID(ctx, b.UserID)
	if err != nil {
		return "", fmt.Errorf("loading user %d: %w", b.UserID, err)
	}
	vehicle, err := s.Vehicles.GetVehicle(ctx, b.VehicleID)
	if err != nil {
		return "", fmt.Errorf("loading vehicle %d: %w", b.VehicleID, err)
	}

	issued := s.now()
	number := fmt.Sprintf("INV-%s-%06d", issued.Format("20060102"), b.ID)
	days := int(b.EndDate.Sub(b.StartDate).Hours()/24) + 1
	data := entities.InvoiceData{
		InvoiceNumber:     number,
		IssuedAt:          issued.Format(displayDate),
		UserName:          user.Name,
		UserEmail:         user.Email,
		VehicleTitle:      vehicle.Title,
		StartDate:         b.StartDate.Format(displayDate),
		EndDate:           b.EndDate.Format(displayDate),
		Days:              days,
		PricePerDay:       fmt.Sprintf("%.2f", vehicle.PricePerDay),
		Total:             fmt.Sprintf("%.2f", p.Amount),
		Currency:          p.Currency,
		ProviderOrderID:   p.ProviderOrderID,
		ProviderPaymentID: p.ProviderPaymentID,
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "invoice.html", data); err != nil {
		return "", fmt.Errorf("rendering invoice %s: %w", number, err)
	}

	key := fmt.Sprintf("%d/%s-%s.html", b.UserID, number, uuid.NewString()[:8])
	url, err := s.Store.Save(ctx, key, buf.Bytes())
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"invoice":    number,
		"url":        url,
	}).Info("invoice stored")

	if s.Notifier != nil {
		if err := s.Notifier.InvoiceIssued(ctx, user, vehicle, b, url); err != nil {
			return url, fmt.Errorf("emailing invoice %s: %w", number, err)
		}
	}
	return url, nil
}
