package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
	"vehirent/internal/utils"
)

type PaymentService struct {
	Payments   PaymentStore
	Gateway    Gateway
	Bookings   *BookingService
	Invoices   *InvoiceService
	Dispatcher *Dispatcher
	Currency   string
	Timeout    time.Duration
	log        *logrus.Logger
}

func NewPaymentService(
	payments PaymentStore,
	gateway Gateway,
	bookings *BookingService,
	invoices *InvoiceService,
	dispatcher *Dispatcher,
	currency string,
	timeout time.Duration,
	log *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		Payments:   payments,
		Gateway:    gateway,
		Bookings:   bookings,
		Invoices:   invoices,
		Dispatcher: dispatcher,
		Currency:   currency,
		Timeout:    timeout,
		log:        log,
	}
}

// CreateOrder opens a provider order for amount and records it as a pending
// payment of userID. Provider failures are fatal for this call and surface as
// dependency errors.
func (s *PaymentService) CreateOrder(ctx context.Context, userID int64, amount float64) (*entities.Order, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, apperrors.Validation("amount must be greater than zero")
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	order, err := s.Gateway.CreateOrder(providerCtx, amount, s.Currency)
	if err != nil {
		s.log.WithError(err).WithField("amount", amount).Error("payment order creation failed")
		return nil, apperrors.Dependency("payment provider unavailable", err)
	}

	pending := &db.Payment{
		UserID:          userID,
		ProviderOrderID: order.OrderID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          db.PaymentPending,
	}
	if err := s.Payments.CreatePayment(ctx, pending); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"amount":   order.Amount,
		"user_id":  userID,
	}).Info("payment order created")
	return order, nil
}

// Verify checks the provider signature, ties it to the caller's pending order,
// completes the payment and books the vehicle with the payment linked. Nothing
// is written unless the signature, order, amount, vehicle and dates all check
// out; only a booking lost to a concurrent request leaves a paid order behind.
func (s *PaymentService) Verify(ctx context.Context, userID int64, req entities.VerifyPaymentRequest) (*entities.VerifyPaymentResponse, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, apperrors.Validation("order_id, payment_id and signature are required")
	}
	if !s.Gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.WithFields(logrus.Fields{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
			"user_id":    userID,
		}).Warn("payment signature mismatch")
		return nil, apperrors.SignatureInvalid("payment signature verification failed")
	}

	payment, err := s.Payments.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}
	if payment.Status != db.PaymentPending {
		return nil, apperrors.Conflict("payment already processed")
	}

	rng, err := utils.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	input := CreateBookingInput{
		VehicleID:   req.VehicleID,
		UserID:      userID,
		Range:       rng,
		ClientTotal: &req.Amount,
	}
	quote, err := s.Bookings.Prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	if math.Abs(payment.Amount-quote.Total) > priceTolerance {
		s.log.WithFields(logrus.Fields{
			"order_id":     req.OrderID,
			"order_amount": payment.Amount,
			"total":        quote.Total,
			"user_id":      userID,
		}).Warn("paid order does not cover booking")
		return nil, apperrors.Validation(fmt.Sprintf(
			"order amount %.2f does not match %.2f for %d days", payment.Amount, quote.Total, quote.Days))
	}

	payment.ProviderPaymentID = req.PaymentID
	payment.VehicleID = req.VehicleID
	if err := s.Payments.CompletePayment(ctx, payment); err != nil {
		return nil, err
	}

	input.PaymentID = &payment.ID
	booking, err := s.Bookings.Create(ctx, input)
	if err != nil {
		entry := s.log.WithError(err).WithFields(logrus.Fields{
			"payment_id":          payment.ID,
			"provider_payment_id": payment.ProviderPaymentID,
			"vehicle_id":          req.VehicleID,
			"user_id":             userID,
			"amount":              payment.Amount,
		})
		if errors.Is(err, apperrors.ErrBookingConflict) {
			entry.Warn("payment recorded but booking failed, manual refund required")
		} else {
			entry.Error("payment recorded but booking failed, manual refund required")
		}
		return nil, err
	}

	s.issueInvoice(booking, payment)

	return &entities.VerifyPaymentResponse{Success: true, Booking: booking, Payment: payment}, nil
}

func (s *PaymentService) History(ctx context.Context, userID int64) ([]db.Payment, error) {
	return s.Payments.ListPaymentsByUser(ctx, userID)
}

func (s *PaymentService) issueInvoice(booking *db.Booking, payment *db.Payment) {
	if s.Invoices == nil || s.Dispatcher == nil {
		return
	}
	b, p := *booking, *payment
	s.Dispatcher.Go("invoice", func(ctx context.Context) error {
		_, err := s.Invoices.Issue(ctx, &b, &p)
		return err
	})
}
