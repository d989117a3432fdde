package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vehirent/internal/db"
	apperrors "vehirent/internal/errors"
)

const constraintPaymentOrderID = "payments_provider_order_id_key"

const paymentColumns = `id, user_id, COALESCE(vehicle_id, 0), provider_order_id, COALESCE(provider_payment_id, ''),
	amount, currency, status, created_at`

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(conn *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: conn}
}

func mapPaymentError(err error) error {
	if pqCode(err) == codeUniqueViolation {
		if pqConstraint(err) == constraintPaymentOrderID {
			return apperrors.Conflict("order already recorded")
		}
		return apperrors.Conflict("payment already processed")
	}
	if pqCode(err) == codeForeignKeyViolation {
		return apperrors.NotFound("vehicle not found")
	}
	return nil
}

// CreatePayment records a payment row, usually a pending provider order.
// Duplicate order ids and provider payment ids are reported as conflicts.
func (r *PaymentRepository) CreatePayment(ctx context.Context, p *db.Payment) error {
	query := `
		INSERT INTO payments (user_id, vehicle_id, provider_order_id, provider_payment_id, amount, currency, status)
		VALUES ($1, NULLIF($2::BIGINT, 0), $3, NULLIF($4::TEXT, ''), $5, $6, $7)
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		p.UserID, p.VehicleID, p.ProviderOrderID, p.ProviderPaymentID, p.Amount, p.Currency, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if mapped := mapPaymentError(err); mapped != nil {
		return mapped
	}
	if err != nil {
		return fmt.Errorf("error inserting payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*db.Payment, error) {
	var p db.Payment
	err := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_order_id = $1`, orderID).
		Scan(&p.ID, &p.UserID, &p.VehicleID, &p.ProviderOrderID, &p.ProviderPaymentID,
			&p.Amount, &p.Currency, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("order %s not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("error getting order %s: %w", orderID, err)
	}
	return &p, nil
}

// CompletePayment moves a pending order to success with the verified provider
// payment id and the booked vehicle. Only one caller can complete an order.
func (r *PaymentRepository) CompletePayment(ctx context.Context, p *db.Payment) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE payments SET status = 'success', provider_payment_id = $2, vehicle_id = $3
		WHERE id = $1 AND status = 'pending'`,
		p.ID, p.ProviderPaymentID, p.VehicleID)
	if mapped := mapPaymentError(err); mapped != nil {
		return mapped
	}
	if err != nil {
		return fmt.Errorf("error completing payment %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.Conflict("payment already processed")
	}
	p.Status = db.PaymentSuccess
	return nil
}

func (r *PaymentRepository) ListPaymentsByUser(ctx context.Context, userID int64) ([]db.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying payments: %w", err)
	}
	defer rows.Close()

	payments := []db.Payment{}
	for rows.Next() {
		var p db.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.VehicleID, &p.ProviderOrderID, &p.ProviderPaymentID,
			&p.Amount, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
