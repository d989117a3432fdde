// Package memstore is an in-memory implementation of the service store
// interfaces for tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
)

type Store struct {
	mu       sync.Mutex
	seq      int64
	clock    time.Time
	users    map[int64]*db.User
	vehicles map[int64]*db.Vehicle
	bookings map[int64]*db.Booking
	payments map[int64]*db.Payment
	reviews  map[int64]*db.Review

	// InsertDelay widens the gap between the overlap check and the write in
	// InsertIfFree. Unlike Postgres the two steps are not atomic here.
	InsertDelay time.Duration
}

func New() *Store {
	return &Store{
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[int64]*db.User{},
		vehicles: map[int64]*db.Vehicle{},
		bookings: map[int64]*db.Booking{},
		payments: map[int64]*db.Payment{},
		reviews:  map[int64]*db.Review{},
	}
}

// next returns a fresh id and a strictly increasing timestamp. Callers hold mu.
func (s *Store) next() (int64, time.Time) {
	s.seq++
	s.clock = s.clock.Add(time.Second)
	return s.seq, s.clock
}

func (s *Store) CreateUser(ctx context.Context, u *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.Validation("email already registered")
		}
	}
	u.ID, u.CreatedAt = s.next()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[v.OwnerID]; !ok {
		return apperrors.NotFound(fmt.Sprintf("user %d not found", v.OwnerID))
	}
	v.ID, v.CreatedAt = s.next()
	v.UpdatedAt = v.CreatedAt
	if v.Approval == "" {
		v.Approval = db.ApprovalPending
	}
	cp := *v
	s.vehicles[v.ID] = &cp
	return nil
}

func (s *Store) GetVehicle(ctx context.Context, id int64) (*db.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("vehicle %d not found", id))
	}
	cp := *v
	return &cp, nil
}

func (s *Store) ListVehicles(ctx context.Context, onlyBookable bool) ([]db.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Vehicle{}
	for _, v := range s.vehicles {
		if onlyBookable && !v.Bookable() {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v *db.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.vehicles[v.ID]
	if !ok {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", v.ID))
	}
	_, v.UpdatedAt = s.next()
	existing.Title, existing.Brand, existing.Model = v.Title, v.Brand, v.Model
	existing.Description, existing.PricePerDay, existing.Available = v.Description, v.PricePerDay, v.Available
	existing.UpdatedAt = v.UpdatedAt
	return nil
}

func (s *Store) SetApproval(ctx context.Context, id int64, approval db.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", id))
	}
	v.Approval = approval
	return nil
}

// DeleteVehicle follows the Postgres rules: active bookings or payment
// records block the delete, cancelled bookings and reviews go with it.
func (s *Store) DeleteVehicle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", id))
	}
	if len(s.activeLocked(id)) > 0 {
		return apperrors.Conflict(fmt.Sprintf("vehicle %d has active bookings", id))
	}
	for _, p := range s.payments {
		if p.VehicleID == id {
			return apperrors.Conflict(fmt.Sprintf("vehicle %d has payment records", id))
		}
	}
	delete(s.vehicles, id)
	for bid, b := range s.bookings {
		if b.VehicleID == id {
			delete(s.bookings, bid)
		}
	}
	for rid, r := range s.reviews {
		if r.VehicleID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

func (s *Store) ActiveBookings(ctx context.Context, vehicleID int64) ([]db.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(vehicleID), nil
}

func (s *Store) activeLocked(vehicleID int64) []db.Booking {
	out := []db.Booking{}
	for _, b := range s.bookings {
		if b.VehicleID == vehicleID && b.Active() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

// InsertIfFree checks for overlaps and then inserts in two separate steps.
func (s *Store) InsertIfFree(ctx context.Context, b *db.Booking) error {
	s.mu.Lock()
	if _, ok := s.vehicles[b.VehicleID]; !ok {
		s.mu.Unlock()
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", b.VehicleID))
	}
	for _, existing := range s.activeLocked(b.VehicleID) {
		if !existing.StartDate.After(b.EndDate) && !existing.EndDate.Before(b.StartDate) {
			s.mu.Unlock()
			return apperrors.Conflict("vehicle is already booked for the selected dates")
		}
	}
	s.mu.Unlock()

	if s.InsertDelay > 0 {
		time.Sleep(s.InsertDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b.PaymentID != nil {
		for _, existing := range s.bookings {
			if existing.PaymentID != nil && *existing.PaymentID == *b.PaymentID {
				return apperrors.Conflict("payment is already linked to a booking")
			}
		}
	}
	if b.Status == "" {
		b.Status = db.BookingConfirmed
	}
	b.ID, b.CreatedAt = s.next()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*db.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("booking %d not found", id))
	}
	cp := *b
	return &cp, nil
}

func (s *Store) CancelBooking(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status == db.BookingCancelled {
		return false, nil
	}
	b.Status = db.BookingCancelled
	_, b.UpdatedAt = s.next()
	return true, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return apperrors.NotFound(fmt.Sprintf("booking %d not found", id))
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID int64) ([]entities.BookingView, error) {
	return s.views(func(b *db.Booking) bool { return b.UserID == userID }, newestFirst), nil
}

func (s *Store) ListBookingsByVehicle(ctx context.Context, vehicleID int64) ([]entities.BookingView, error) {
	return s.views(func(b *db.Booking) bool { return b.VehicleID == vehicleID }, byStartDate), nil
}

func (s *Store) ListAllBookings(ctx context.Context) ([]entities.BookingView, error) {
	return s.views(func(*db.Booking) bool { return true }, newestFirst), nil
}

func newestFirst(a, b entities.BookingView) bool { return a.CreatedAt.After(b.CreatedAt) }
func byStartDate(a, b entities.BookingView) bool { return a.StartDate.Before(b.StartDate) }

func (s *Store) views(keep func(*db.Booking) bool, less func(a, b entities.BookingView) bool) []entities.BookingView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entities.BookingView{}
	for _, b := range s.bookings {
		if !keep(b) {
			continue
		}
		v := entities.BookingView{
			ID:         b.ID,
			StartDate:  b.StartDate,
			EndDate:    b.EndDate,
			TotalPrice: b.TotalPrice,
			Status:     string(b.Status),
			CreatedAt:  b.CreatedAt,
		}
		if veh, ok := s.vehicles[b.VehicleID]; ok {
			v.Vehicle = entities.VehicleSummary{ID: veh.ID, Title: veh.Title, PricePerDay: veh.PricePerDay}
		}
		if u, ok := s.users[b.UserID]; ok {
			v.User = entities.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		if b.PaymentID != nil {
			if p, ok := s.payments[*b.PaymentID]; ok {
				v.Payment = &entities.PaymentSummary{
					ID:                p.ID,
					ProviderPaymentID: p.ProviderPaymentID,
					Amount:            p.Amount,
					Status:            string(p.Status),
				}
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (s *Store) CreatePayment(ctx context.Context, p *db.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.ProviderOrderID == p.ProviderOrderID {
			return apperrors.Conflict("order already recorded")
		}
		if p.ProviderPaymentID != "" && existing.ProviderPaymentID == p.ProviderPaymentID {
			return apperrors.Conflict("payment already processed")
		}
	}
	p.ID, p.CreatedAt = s.next()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*db.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ProviderOrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(fmt.Sprintf("order %s not found", orderID))
}

func (s *Store) CompletePayment(ctx context.Context, p *db.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.payments[p.ID]
	if !ok || stored.Status != db.PaymentPending {
		return apperrors.Conflict("payment already processed")
	}
	for _, existing := range s.payments {
		if existing.ID != p.ID && existing.ProviderPaymentID == p.ProviderPaymentID {
			return apperrors.Conflict("payment already processed")
		}
	}
	if _, ok := s.vehicles[p.VehicleID]; !ok {
		return apperrors.NotFound("vehicle not found")
	}
	stored.Status = db.PaymentSuccess
	stored.ProviderPaymentID = p.ProviderPaymentID
	stored.VehicleID = p.VehicleID
	p.Status = db.PaymentSuccess
	return nil
}

func (s *Store) ListPaymentsByUser(ctx context.Context, userID int64) ([]db.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Payment{}
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Payments returns every recorded payment, for assertions.
func (s *Store) Payments() []db.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CreateReview(ctx context.Context, r *db.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.UserID == r.UserID && existing.VehicleID == r.VehicleID {
			return apperrors.Conflict("vehicle already reviewed by this user")
		}
	}
	r.ID, r.CreatedAt = s.next()
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

func (s *Store) ListReviewsByVehicle(ctx context.Context, vehicleID int64) ([]db.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Review{}
	for _, r := range s.reviews {
		if r.VehicleID == vehicleID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return apperrors.NotFound(fmt.Sprintf("review %d not found", id))
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) ConfirmedBookingIDsStartingOn(ctx context.Context, day time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, b := range s.bookings {
		if b.Status == db.BookingConfirmed && b.StartDate.Equal(day) {
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) ReminderTargets(ctx context.Context, ids []int64) ([]entities.ReminderTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.ReminderTarget
	for _, id := range ids {
		b, ok := s.bookings[id]
		if !ok || b.Status != db.BookingConfirmed {
			continue
		}
		t := entities.ReminderTarget{
			BookingID:  b.ID,
			StartDate:  b.StartDate,
			EndDate:    b.EndDate,
			TotalPrice: b.TotalPrice,
		}
		if u, ok := s.users[b.UserID]; ok {
			t.UserName, t.UserEmail, t.UserPhone = u.Name, u.Email, u.Phone
		}
		if v, ok := s.vehicles[b.VehicleID]; ok {
			t.VehicleTitle = v.Title
		}
		out = append(out, t)
	}
	return out, nil
}

// SeedUser and SeedVehicle are shortcuts for test setup.
func (s *Store) SeedUser(name, email, phone string, admin bool) *db.User {
	u := &db.User{Name: name, Email: email, Phone: phone, IsAdmin: admin, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (s *Store) SeedVehicle(ownerID int64, title string, pricePerDay float64) *db.Vehicle {
	v := &db.Vehicle{
		OwnerID:     ownerID,
		Title:       title,
		PricePerDay: pricePerDay,
		Available:   true,
		Approval:    db.ApprovalApproved,
	}
	if err := s.CreateVehicle(context.Background(), v); err != nil {
		panic(err)
	}
	return v
}
