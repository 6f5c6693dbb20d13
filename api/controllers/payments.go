package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/adee-tech/adee-backend/api/responses"
	"github.com/adee-tech/adee-backend/api/validators"
	"github.com/adee-tech/adee-backend/internal/payments"
	"github.com/adee-tech/adee-backend/pkg/logger"
)

type createPaymentPayload struct {
	OrderID string          `json:"order_id" validate:"required,max=255"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
}

// PaymentCreate records a pending top-up before the provider settles it.
func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payment, err := svc.RecordPending(ctx, principal.UserID, payload.OrderID, payload.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PaymentList returns the caller's payment history, newest first.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListForUser(ctx, principal.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
