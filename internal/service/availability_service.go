package service

import (
	"context"
	"fmt"
	"math"

	"vehirent/internal/db"
	"vehirent/internal/entities"
	"vehirent/internal/utils"
)

type AvailabilityService struct {
	Bookings BookingStore
	Vehicles VehicleStore
}

func NewAvailabilityService(bookings BookingStore, vehicles VehicleStore) *AvailabilityService {
	return &AvailabilityService{Bookings: bookings, Vehicles: vehicles}
}

// Quote is the server side price of renting a vehicle over a range.
type Quote struct {
	Vehicle *db.Vehicle
	Days    int
	Total   float64
}

func (s *AvailabilityService) Quote(ctx context.Context, vehicleID int64, rng utils.DateRange) (*Quote, error) {
	vehicle, err := s.Vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	days := rng.Days()
	return &Quote{
		Vehicle: vehicle,
		Days:    days,
		Total:   roundCents(float64(days) * vehicle.PricePerDay),
	}, nil
}

// Check reports whether rng is free for the vehicle. Cancelled bookings never
// block a range.
func (s *AvailabilityService) Check(ctx context.Context, vehicleID int64, rng utils.DateRange) (*entities.Availability, error) {
	quote, err := s.Quote(ctx, vehicleID, rng)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.conflicts(ctx, vehicleID, rng)
	if err != nil {
		return nil, err
	}
	return &entities.Availability{
		VehicleID:  vehicleID,
		Available:  len(conflicts) == 0,
		StartDate:  rng.Start,
		EndDate:    rng.End,
		Conflicts:  conflicts,
		Days:       quote.Days,
		TotalPrice: quote.Total,
	}, nil
}

// BookedRanges lists the active bookings of a vehicle for calendar display.
func (s *AvailabilityService) BookedRanges(ctx context.Context, vehicleID int64) ([]entities.BookedRange, error) {
	if _, err := s.Vehicles.GetVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.ActiveBookings(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading bookings of vehicle %d: %w", vehicleID, err)
	}
	ranges := make([]entities.BookedRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, entities.BookedRange{BookingID: b.ID, StartDate: b.StartDate, EndDate: b.EndDate})
	}
	return ranges, nil
}

func (s *AvailabilityService) conflicts(ctx context.Context, vehicleID int64, rng utils.DateRange) ([]entities.BookedRange, error) {
	bookings, err := s.Bookings.ActiveBookings(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading bookings of vehicle %d: %w", vehicleID, err)
	}
	var conflicts []entities.BookedRange
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		booked := utils.DateRange{Start: utils.StartOfDay(b.StartDate), End: utils.StartOfDay(b.EndDate)}
		if booked.Overlaps(rng) {
			conflicts = append(conflicts, entities.BookedRange{BookingID: b.ID, StartDate: b.StartDate, EndDate: b.EndDate})
		}
	}
	return conflicts, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
