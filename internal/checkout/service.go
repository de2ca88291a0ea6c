// Package checkout implements the payment-session handoff: it turns the
// current cart into processor line items, creates the hosted checkout
// session, and retrieves session status for verification.
package checkout

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/olashile-studio/gallery-backend/pkg/currency"
	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	pkgstripe "github.com/olashile-studio/gallery-backend/pkg/stripe"
)

// Item is one cart line at submit time, already converted to the resolved
// currency by the caller.
type Item struct {
	Title    string
	Price    decimal.Decimal
	Quantity int64
}

// CreateSessionInput carries everything needed for one checkout attempt.
type CreateSessionInput struct {
	Items              []Item
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	Currency           string
	CurrencyMultiplier int64
}

// Session is the processor's handle for one payment attempt.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// VerifiedSession is the passthrough view of a session's recorded state.
type VerifiedSession struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

// Paid reports whether the processor recorded the session as paid.
func (v VerifiedSession) Paid() bool {
	return v.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

type Service struct {
	api pkgstripe.CheckoutSessionAPI
}

func NewService(api pkgstripe.CheckoutSessionAPI) (*Service, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe checkout api required")
	}
	return &Service{api: api}, nil
}

// CreateSession validates the currency against the supported set (defaulting
// to USD), converts every amount to integer minor units with half-up
// rounding, appends the shipping line, and creates the hosted session. The
// original currency and item count ride along in metadata for auditing.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput) (Session, error) {
	if len(input.Items) == 0 {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	resolved := currency.Resolve(input.Currency)
	multiplier := input.CurrencyMultiplier
	if multiplier <= 0 {
		multiplier = currency.Multiplier(resolved)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items)+1)
	for _, item := range input.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(resolved),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
				UnitAmount: stripe.Int64(currency.MinorUnits(item.Price, multiplier)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(resolved),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String("Shipping"),
				Description: stripe.String("Standard shipping fee"),
			},
			UnitAmount: stripe.Int64(currency.MinorUnits(currency.ShippingAmount(resolved), multiplier)),
		},
		Quantity: stripe.Int64(1),
	})

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(input.CustomerEmail),
		SuccessURL:         stripe.String(input.SuccessURL),
		CancelURL:          stripe.String(input.CancelURL),
		Locale:             stripe.String("auto"),
	}
	params.Metadata = map[string]string{
		"customer_email":    input.CustomerEmail,
		"items_count":       strconv.Itoa(len(input.Items)),
		"original_currency": input.Currency,
	}

	session, err := s.api.Create(ctx, params)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating checkout session")
	}
	return Session{ID: session.ID, URL: session.URL}, nil
}

// VerifySession fetches the session's payment status and returns it
// verbatim. No local state: the caller decides what the status means.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (VerifiedSession, error) {
	if sessionID == "" {
		return VerifiedSession{}, pkgerrors.New(pkgerrors.CodeValidation, "Session ID is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")

	session, err := s.api.Retrieve(ctx, sessionID, params)
	if err != nil {
		return VerifiedSession{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving checkout session")
	}

	return VerifiedSession{
		ID:            session.ID,
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		CustomerEmail: session.CustomerEmail,
		Metadata:      session.Metadata,
	}, nil
}
