package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type EvaluationRepositoryInterface interface {
	GetByOrderID(ctx context.Context, orderID string) (*model.Evaluation, error)
	Create(ctx context.Context, e *model.Evaluation) error
}

type EvaluationRepository struct {
	DB *sql.DB
}

func (r *EvaluationRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Evaluation, error) {
	query := `SELECT id, order_id, token, COALESCE(code, ''), created_at FROM evaluations WHERE order_id = $1 LIMIT 1`
	var e model.Evaluation
	err := r.DB.QueryRowContext(ctx, query, orderID).Scan(&e.ID, &e.OrderID, &e.Token, &e.Code, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return &e, nil
}

// Create inserts an evaluation. A concurrent insert for the same order returns ErrDuplicateKey.
func (r *EvaluationRepository) Create(ctx context.Context, e *model.Evaluation) error {
	query := `
        INSERT INTO evaluations (order_id, token, code, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at
    `
	err := r.DB.QueryRowContext(ctx, query, e.OrderID, e.Token, e.Code).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

var _ EvaluationRepositoryInterface = (*EvaluationRepository)(nil)
