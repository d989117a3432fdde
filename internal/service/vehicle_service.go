package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"vehirent/internal/auth"
	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
)

type VehicleService struct {
	Vehicles VehicleStore
	log      *logrus.Logger
}

func NewVehicleService(vehicles VehicleStore, log *logrus.Logger) *VehicleService {
	return &VehicleService{Vehicles: vehicles, log: log}
}

func validateVehicle(req entities.VehicleRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.Validation("title is required")
	}
	if req.PricePerDay <= 0 {
		return apperrors.Validation("price_per_day must be greater than zero")
	}
	return nil
}

// Create lists a new vehicle owned by ownerID. It stays pending until an admin
// approves it.
func (s *VehicleService) Create(ctx context.Context, ownerID int64, req entities.VehicleRequest) (*db.Vehicle, error) {
	if err := validateVehicle(req); err != nil {
		return nil, err
	}
	v := &db.Vehicle{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Brand:       req.Brand,
		Model:       req.Model,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Available:   req.Available == nil || *req.Available,
		Approval:    db.ApprovalPending,
	}
	if err := s.Vehicles.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"vehicle_id": v.ID, "owner_id": ownerID}).Info("vehicle listed")
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, id int64) (*db.Vehicle, error) {
	return s.Vehicles.GetVehicle(ctx, id)
}

func (s *VehicleService) ListBookable(ctx context.Context) ([]db.Vehicle, error) {
	return s.Vehicles.ListVehicles(ctx, true)
}

func (s *VehicleService) ListAll(ctx context.Context) ([]db.Vehicle, error) {
	return s.Vehicles.ListVehicles(ctx, false)
}

func (s *VehicleService) Update(ctx context.Context, id int64, requester *auth.Claims, req entities.VehicleRequest) (*db.Vehicle, error) {
	if err := validateVehicle(req); err != nil {
		return nil, err
	}
	v, err := s.Vehicles.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanActOn(v.OwnerID) {
		return nil, apperrors.Forbidden("you can only edit your own vehicles")
	}
	v.Title = strings.TrimSpace(req.Title)
	v.Brand = req.Brand
	v.Model = req.Model
	v.Description = req.Description
	v.PricePerDay = req.PricePerDay
	if req.Available != nil {
		v.Available = *req.Available
	}
	if err := s.Vehicles.UpdateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VehicleService) Delete(ctx context.Context, id int64, requester *auth.Claims) error {
	v, err := s.Vehicles.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	if !requester.CanActOn(v.OwnerID) {
		return apperrors.Forbidden("you can only delete your own vehicles")
	}
	return s.Vehicles.DeleteVehicle(ctx, id)
}

func (s *VehicleService) SetApproval(ctx context.Context, id int64, approval string) (*db.Vehicle, error) {
	a := db.Approval(strings.ToLower(strings.TrimSpace(approval)))
	switch a {
	case db.ApprovalPending, db.ApprovalApproved, db.ApprovalRejected:
	default:
		return nil, apperrors.Validation("approval must be pending, approved or rejected")
	}
	if err := s.Vehicles.SetApproval(ctx, id, a); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"vehicle_id": id, "approval": a}).Info("vehicle approval changed")
	return s.Vehicles.GetVehicle(ctx, id)
}
