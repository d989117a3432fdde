package service

import (
	"context"
	"strings"

	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
)

type ReviewService struct {
	Reviews  ReviewStore
	Vehicles VehicleStore
}

func NewReviewService(reviews ReviewStore, vehicles VehicleStore) *ReviewService {
	return &ReviewService{Reviews: reviews, Vehicles: vehicles}
}

func (s *ReviewService) Create(ctx context.Context, userID int64, req entities.ReviewRequest) (*db.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}
	if _, err := s.Vehicles.GetVehicle(ctx, req.VehicleID); err != nil {
		return nil, err
	}
	r := &db.Review{
		UserID:    userID,
		VehicleID: req.VehicleID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.Reviews.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReviewService) ListForVehicle(ctx context.Context, vehicleID int64) ([]db.Review, error) {
	return s.Reviews.ListReviewsByVehicle(ctx, vehicleID)
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	return s.Reviews.DeleteReview(ctx, id)
}
