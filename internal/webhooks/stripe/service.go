package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v84"

	"github.com/adee-tech/adee-backend/internal/payments"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type paymentSettler interface {
	Complete(ctx context.Context, orderID string) (*payments.PaymentDTO, error)
	MarkFailed(ctx context.Context, orderID string) error
}

// ServiceParams groups dependencies for the Stripe webhook service.
type ServiceParams struct {
	Payments paymentSettler
	Logger   zerolog.Logger
}

// Service translates Stripe checkout events into payment settlements.
type Service struct {
	payments paymentSettler
	logg     zerolog.Logger
}

// NewService builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service is required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

// HandleEvent settles the payment referenced by a checkout event. Event
// types outside the checkout flow are logged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		orderID, err := orderIDFromEvent(event)
		if err != nil {
			return err
		}
		if _, err := s.payments.Complete(ctx, orderID); err != nil {
			return err
		}
		return nil
	case stripe.EventTypeCheckoutSessionExpired:
		orderID, err := orderIDFromEvent(event)
		if err != nil {
			return err
		}
		return s.payments.MarkFailed(ctx, orderID)
	default:
		s.logg.Debug().Str("event_type", string(event.Type)).Msg("ignoring stripe event")
		return nil
	}
}

// orderIDFromEvent resolves the checkout order id. The client reference id
// carries our order id; the session id is the fallback for sessions created
// without one.
func orderIDFromEvent(event *stripe.Event) (string, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	if session.ClientReferenceID != "" {
		return session.ClientReferenceID, nil
	}
	if session.ID != "" {
		return session.ID, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
}
