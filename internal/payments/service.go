package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// Service records balance top-ups and settles them when checkout completes.
type Service interface {
	RecordPending(ctx context.Context, userID uuid.UUID, orderID string, amount decimal.Decimal) (*PaymentDTO, error)
	Complete(ctx context.Context, orderID string) (*PaymentDTO, error)
	MarkFailed(ctx context.Context, orderID string) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]PaymentDTO, error)
}

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
}

type balanceCreditor interface {
	CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	PaymentRepo paymentRepository
	UserRepo    balanceCreditor
	Logger      zerolog.Logger
}

type service struct {
	payments paymentRepository
	users    balanceCreditor
	logg     zerolog.Logger
}

// NewService builds a payments service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.PaymentRepo == nil {
		return nil, fmt.Errorf("payment repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		payments: params.PaymentRepo,
		users:    params.UserRepo,
		logg:     params.Logger,
	}, nil
}

// RecordPending opens a payment record for a checkout order.
func (s *service) RecordPending(ctx context.Context, userID uuid.UUID, orderID string, amount decimal.Decimal) (*PaymentDTO, error) {
	orderID = strings.TrimSpace(orderID)
	if userID == uuid.Nil || orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payment, err := s.payments.Create(ctx, &models.Payment{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Status:  enums.PaymentStatusPending,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	return fromModel(payment), nil
}

// Complete settles the order and credits the user's balance. Completing an
// already settled order is a no-op, so webhook retries stay safe.
func (s *service) Complete(ctx context.Context, orderID string) (*PaymentDTO, error) {
	payment, err := s.loadByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status == enums.PaymentStatusCompleted {
		return fromModel(payment), nil
	}

	if err := s.payments.UpdateStatus(ctx, payment.ID, enums.PaymentStatusCompleted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
	}
	if err := s.users.CreditBalance(ctx, payment.UserID, payment.Amount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}

	s.logg.Info().
		Str("order_id", payment.OrderID).
		Str("user_id", payment.UserID.String()).
		Str("amount", payment.Amount.String()).
		Msg("payment completed")

	payment.Status = enums.PaymentStatusCompleted
	return fromModel(payment), nil
}

// MarkFailed flags the order without touching the balance. Settled orders
// stay settled.
func (s *service) MarkFailed(ctx context.Context, orderID string) error {
	payment, err := s.loadByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if payment.Status == enums.PaymentStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment already completed")
	}
	if err := s.payments.UpdateStatus(ctx, payment.ID, enums.PaymentStatusFailed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
	}
	return nil
}

// ListForUser returns the user's payment history, newest first.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]PaymentDTO, error) {
	rows, err := s.payments.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	result := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) loadByOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}
