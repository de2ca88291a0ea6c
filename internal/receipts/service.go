// Package receipts renders and dispatches the order confirmation emails:
// one to the customer, one to the admin. The two sends are independent;
// a failure of one never suppresses the other.
package receipts

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/mail"
)

// Item is one purchased line as it appears on the receipt.
type Item struct {
	ProductID int             `json:"productId,omitempty"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order carries everything the two emails render.
type Order struct {
	OrderID         string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []Item
	Total           decimal.Decimal
}

const (
	sendAttempts = 3
	sendBackoff  = 500 * time.Millisecond
)

type Service struct {
	sender     mail.Sender
	adminEmail string
	now        func() time.Time
	backoff    time.Duration
}

// NewService wires the relay. A nil sender means email is not configured;
// Dispatch reports that as a precondition failure per request.
func NewService(sender mail.Sender, adminEmail string) *Service {
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	return &Service{
		sender:     sender,
		adminEmail: adminEmail,
		now:        time.Now,
		backoff:    sendBackoff,
	}
}

// Dispatch sends the customer confirmation and the admin notification.
// Both sends are always attempted; each is retried with constant backoff,
// and any terminal failures are joined so the caller sees every recipient
// that did not get notified.
func (s *Service) Dispatch(ctx context.Context, order Order) error {
	if s == nil || s.sender == nil {
		return pkgerrors.New(pkgerrors.CodePrecondition, "Email configuration is missing")
	}

	customerMsg, adminMsg, err := s.render(order)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering receipt")
	}

	var combined error
	if err := s.sendWithRetry(ctx, customerMsg); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("customer email: %w", err))
	}
	if err := s.sendWithRetry(ctx, adminMsg); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("admin email: %w", err))
	}
	if combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "sending receipts")
	}
	return nil
}

func (s *Service) sendWithRetry(ctx context.Context, msg mail.Message) error {
	backoff := retry.WithMaxRetries(sendAttempts-1, retry.NewConstant(s.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.sender.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

type templateData struct {
	OrderID         string
	OrderDate       string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []templateItem
	Total           string
	ItemCount       int
}

type templateItem struct {
	Title    string
	Price    string
	Quantity int
}

func (s *Service) render(order Order) (customer, admin mail.Message, err error) {
	data := templateData{
		OrderID:         order.OrderID,
		OrderDate:       s.now().Format("1/2/2006"),
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		Total:           order.Total.StringFixed(2),
		ItemCount:       len(order.Items),
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, templateItem{
			Title:    item.Title,
			Price:    item.Price.StringFixed(2),
			Quantity: item.Quantity,
		})
	}

	var customerBody, adminBody bytes.Buffer
	if err := customerTemplate.Execute(&customerBody, data); err != nil {
		return mail.Message{}, mail.Message{}, fmt.Errorf("customer template: %w", err)
	}
	if err := adminTemplate.Execute(&adminBody, data); err != nil {
		return mail.Message{}, mail.Message{}, fmt.Errorf("admin template: %w", err)
	}

	customer = mail.Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order Confirmation - %s", order.OrderID),
		HTML:    customerBody.String(),
	}
	admin = mail.Message{
		To:      s.adminEmail,
		Subject: fmt.Sprintf("New Order Received - %s", order.OrderID),
		HTML:    adminBody.String(),
	}
	return customer, admin, nil
}
