package service

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"vehirent/internal/auth"
	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
	"vehirent/internal/utils"
)

// priceTolerance is how far a client supplied total may drift from the
// server side price before the request is rejected.
const priceTolerance = 0.005

type CreateBookingInput struct {
	VehicleID   int64
	UserID      int64
	Range       utils.DateRange
	ClientTotal *float64
	PaymentID   *int64
}

type BookingService struct {
	Bookings     BookingStore
	Vehicles     VehicleStore
	Users        UserStore
	Availability *AvailabilityService
	Notifier     *Notifier
	Dispatcher   *Dispatcher
	log          *logrus.Logger
	locks        *utils.KeyedMutex
}

func NewBookingService(
	bookings BookingStore,
	vehicles VehicleStore,
	users UserStore,
	notifier *Notifier,
	dispatcher *Dispatcher,
	log *logrus.Logger,
) *BookingService {
	return &BookingService{
		Bookings:     bookings,
		Vehicles:     vehicles,
		Users:        users,
		Availability: NewAvailabilityService(bookings, vehicles),
		Notifier:     notifier,
		Dispatcher:   dispatcher,
		log:          log,
		locks:        utils.NewKeyedMutex(),
	}
}

// Prepare runs the checks of Create without writing: the vehicle is bookable,
// the client total matches the quote and the range is free right now.
func (s *BookingService) Prepare(ctx context.Context, in CreateBookingInput) (*Quote, error) {
	quote, err := s.quote(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.checkFree(ctx, in); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *BookingService) quote(ctx context.Context, in CreateBookingInput) (*Quote, error) {
	if in.UserID == 0 {
		return nil, apperrors.Unauthorized("missing user")
	}
	quote, err := s.Availability.Quote(ctx, in.VehicleID, in.Range)
	if err != nil {
		return nil, err
	}
	if !quote.Vehicle.Bookable() {
		return nil, apperrors.Validation(fmt.Sprintf("vehicle %d is not available for booking", in.VehicleID))
	}
	if in.ClientTotal != nil && math.Abs(*in.ClientTotal-quote.Total) > priceTolerance {
		return nil, apperrors.Validation(fmt.Sprintf(
			"total price %.2f does not match %.2f for %d days", *in.ClientTotal, quote.Total, quote.Days))
	}
	return quote, nil
}

func (s *BookingService) checkFree(ctx context.Context, in CreateBookingInput) error {
	conflicts, err := s.Availability.conflicts(ctx, in.VehicleID, in.Range)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperrors.Conflict("vehicle is already booked for the selected dates")
	}
	return nil
}

// Create books a vehicle for a date range. The vehicle must be approved and
// available, the price is always computed here, and the overlap check plus
// insert run under a per-vehicle lock backed by the store's own atomic insert.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*db.Booking, error) {
	quote, err := s.quote(ctx, in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.VehicleID)
	defer unlock()

	if err := s.checkFree(ctx, in); err != nil {
		return nil, err
	}

	booking := &db.Booking{
		VehicleID:  in.VehicleID,
		UserID:     in.UserID,
		StartDate:  in.Range.Start,
		EndDate:    in.Range.End,
		TotalPrice: quote.Total,
		Status:     db.BookingConfirmed,
		PaymentID:  in.PaymentID,
	}
	if err := s.Bookings.InsertIfFree(ctx, booking); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"vehicle_id": booking.VehicleID,
		"user_id":    booking.UserID,
		"range":      in.Range.String(),
		"total":      booking.TotalPrice,
	}).Info("booking confirmed")

	s.notify("booking confirmation", booking, func(ctx context.Context, u *db.User, v *db.Vehicle, b *db.Booking) error {
		return s.Notifier.BookingConfirmed(ctx, u, v, b)
	})
	return booking, nil
}

// Cancel moves a confirmed booking to cancelled. Only the booking's user or an
// admin may cancel, and cancelling twice is an error.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, requester *auth.Claims) (*db.Booking, error) {
	booking, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if requester == nil || !requester.CanActOn(booking.UserID) {
		return nil, apperrors.Forbidden("you can only cancel your own bookings")
	}
	if booking.Status == db.BookingCancelled {
		return nil, apperrors.AlreadyCancelled(fmt.Sprintf("booking %d is already cancelled", bookingID))
	}

	changed, err := s.Bookings.CancelBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperrors.AlreadyCancelled(fmt.Sprintf("booking %d is already cancelled", bookingID))
	}
	booking.Status = db.BookingCancelled

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"vehicle_id": booking.VehicleID,
		"by_user":    requester.UserID,
	}).Info("booking cancelled")

	s.notify("booking cancellation", booking, func(ctx context.Context, u *db.User, v *db.Vehicle, b *db.Booking) error {
		return s.Notifier.BookingCancelled(ctx, u, v, b)
	})
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]entities.BookingView, error) {
	return s.Bookings.ListBookingsByUser(ctx, userID)
}

func (s *BookingService) ListForVehicle(ctx context.Context, vehicleID int64) ([]entities.BookingView, error) {
	return s.Bookings.ListBookingsByVehicle(ctx, vehicleID)
}

func (s *BookingService) ListAll(ctx context.Context) ([]entities.BookingView, error) {
	return s.Bookings.ListAllBookings(ctx)
}

// Delete removes a booking regardless of its status.
func (s *BookingService) Delete(ctx context.Context, bookingID int64) error {
	if err := s.Bookings.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}
	s.log.WithField("booking_id", bookingID).Warn("booking deleted by admin")
	return nil
}

type bookingMessage func(ctx context.Context, u *db.User, v *db.Vehicle, b *db.Booking) error

func (s *BookingService) notify(name string, booking *db.Booking, send bookingMessage) {
	if s.Notifier == nil || s.Dispatcher == nil {
		return
	}
	b := *booking
	s.Dispatcher.Go(name, func(ctx context.Context) error {
		user, err := s.Users.GetUserByID(ctx, b.UserID)
		if err != nil {
			return fmt.Errorf("loading user %d: %w", b.UserID, err)
		}
		vehicle, err := s.Vehicles.GetVehicle(ctx, b.VehicleID)
		if err != nil {
			return fmt.Errorf("loading vehicle %d: %w", b.VehicleID, err)
		}
		return send(ctx, user, vehicle, &b)
	})
}
