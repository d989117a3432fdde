package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vehirent/internal/db"
	apperrors "vehirent/internal/errors"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(conn *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: conn}
}

const vehicleColumns = `id, owner_id, title, brand, model, description, price_per_day, available, approval, created_at, updated_at`

func scanVehicle(row interface{ Scan(...interface{}) error }, v *db.Vehicle) error {
	return row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Brand, &v.Model, &v.Description,
		&v.PricePerDay, &v.Available, &v.Approval, &v.CreatedAt, &v.UpdatedAt)
}

func (r *VehicleRepository) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	query := `
		INSERT INTO vehicles (owner_id, title, brand, model, description, price_per_day, available, approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		v.OwnerID, v.Title, v.Brand, v.Model, v.Description, v.PricePerDay, v.Available, v.Approval,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetVehicle(ctx context.Context, id int64) (*db.Vehicle, error) {
	var v db.Vehicle
	err := scanVehicle(r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id), &v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("vehicle %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("error querying vehicle: %w", err)
	}
	return &v, nil
}

// ListVehicles returns every vehicle, or only approved and available ones when
// onlyBookable is set.
func (r *VehicleRepository) ListVehicles(ctx context.Context, onlyBookable bool) ([]db.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if onlyBookable {
		query += ` WHERE available AND approval = 'approved'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []db.Vehicle{}
	for rows.Next() {
		var v db.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) UpdateVehicle(ctx context.Context, v *db.Vehicle) error {
	query := `
		UPDATE vehicles
		SET title = $2, brand = $3, model = $4, description = $5, price_per_day = $6, available = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		v.ID, v.Title, v.Brand, v.Model, v.Description, v.PricePerDay, v.Available,
	).Scan(&v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", v.ID))
	}
	if err != nil {
		return fmt.Errorf("error updating vehicle %d: %w", v.ID, err)
	}
	return nil
}

func (r *VehicleRepository) SetApproval(ctx context.Context, id int64, approval db.Approval) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE vehicles SET approval = $2, updated_at = NOW() WHERE id = $1`, id, approval)
	if err != nil {
		return fmt.Errorf("error updating approval of vehicle %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("vehicle %d not found", id))
}

// DeleteVehicle refuses while the vehicle has active bookings. The vehicle row
// is locked first, like InsertIfFree does, so no booking can slip in between.
// Payment records keep the vehicle through their foreign key.
func (r *VehicleRepository) DeleteVehicle(ctx context.Context, id int64) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting vehicle delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM vehicles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", id))
	}
	if err != nil {
		return fmt.Errorf("error locking vehicle %d: %w", id, err)
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE vehicle_id = $1 AND status <> 'cancelled'`, id,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("error counting bookings of vehicle %d: %w", id, err)
	}
	if active > 0 {
		return apperrors.Conflict(fmt.Sprintf("vehicle %d has active bookings", id))
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return apperrors.Conflict(fmt.Sprintf("vehicle %d has payment records", id))
		}
		return fmt.Errorf("error deleting vehicle %d: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing vehicle delete: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(notFound)
	}
	return nil
}
