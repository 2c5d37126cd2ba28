package payments

import (
	"context"
	"os"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/setupintent"
)

// StripeClient wraps stripe-go for registering a rider's preferred
// payment method before it is stored on the profile.
type StripeClient struct{}

// NewStripeClient initializes the stripe client with the
// STRIPE_API_KEY env var.
func NewStripeClient() *StripeClient {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeClient{}
}

// Register creates a SetupIntent confirming the payment method so a
// later ride booking can charge it. Returns the SetupIntent ID.
func (s *StripeClient) Register(ctx context.Context, paymentMethodID, customerID string) (string, error) {
	params := &stripe.SetupIntentParams{
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	si, err := setupintent.New(params)
	if err != nil {
		return "", err
	}
	return si.ID, nil
}
