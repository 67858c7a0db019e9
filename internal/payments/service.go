package payments

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"racereg/internal/orders"
	"racereg/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSignature is returned when a notification's signature key does
// not match the expected digest.
var ErrInvalidSignature = errors.New("invalid notification signature")

// Config holds reconciliation settings.
type Config struct {
	ServerKey       string
	VerifySignature bool
}

// Service maps gateway status reports onto order lifecycle transitions.
// Push notifications and active pulls both funnel through Apply so that
// duplicate or out-of-order delivery stays idempotent.
type Service interface {
	Apply(ctx context.Context, report *StatusReport, now time.Time) (*ReconcileResult, error)
	CheckStatus(ctx context.Context, orderNumber string, now time.Time) (*ReconcileResult, error)
	VerifySignature(report *StatusReport) error
}

type service struct {
	orderService orders.Service
	gateway      Client
	config       Config
	validate     *validator.Validate
}

func NewService(orderService orders.Service, gateway Client, config Config) Service {
	return &service{
		orderService: orderService,
		gateway:      gateway,
		config:       config,
		validate:     validator.New(),
	}
}

// Apply resolves a status report to exactly one lifecycle transition.
func (s *service) Apply(ctx context.Context, report *StatusReport, now time.Time) (*ReconcileResult, error) {
	if err := s.validate.Struct(report); err != nil {
		return nil, err
	}

	log := logger.GetDefault()
	log.LogGatewayReport(ctx, report.OrderNumber, report.TransactionStatus, report.FraudStatus)

	var (
		order   *orders.Order
		changed bool
		err     error
	)

	switch report.TransactionStatus {
	case TransactionCapture:
		switch report.FraudStatus {
		case FraudChallenge:
			order, changed, err = s.orderService.ApplyStatus(ctx, report.OrderNumber, orders.StatusChallenge)
		case FraudAccept:
			order, changed, err = s.orderService.MarkPaid(ctx, report.OrderNumber, report.PaymentType, report.TransactionID, now)
		default:
			log.Warn("unrecognized fraud status on capture, ignoring report",
				slog.String("order_number", report.OrderNumber),
				slog.String("fraud_status", report.FraudStatus),
			)
			order, err = s.orderService.GetOrderByNumber(ctx, report.OrderNumber)
		}
	case TransactionSettlement:
		order, changed, err = s.orderService.MarkPaid(ctx, report.OrderNumber, report.PaymentType, report.TransactionID, now)
	case TransactionPending:
		order, changed, err = s.orderService.ApplyStatus(ctx, report.OrderNumber, orders.StatusPending)
	case TransactionDeny:
		order, changed, err = s.orderService.ApplyStatus(ctx, report.OrderNumber, orders.StatusDenied)
	case TransactionExpire:
		order, changed, err = s.orderService.ApplyStatus(ctx, report.OrderNumber, orders.StatusExpired)
	case TransactionCancel:
		order, changed, err = s.orderService.Cancel(ctx, report.OrderNumber, now)
	default:
		log.Warn("unrecognized gateway transaction status, ignoring report",
			slog.String("order_number", report.OrderNumber),
			slog.String("transaction_status", report.TransactionStatus),
		)
		order, err = s.orderService.GetOrderByNumber(ctx, report.OrderNumber)
	}

	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Changed:     changed,
	}
	if order.BibNumber != nil {
		result.BibNumber = *order.BibNumber
	}
	return result, nil
}

// CheckStatus actively pulls the current gateway status for an order and
// applies it through the same reconciliation path as push notifications.
func (s *service) CheckStatus(ctx context.Context, orderNumber string, now time.Time) (*ReconcileResult, error) {
	// Never create state from a gateway report; the order must exist first.
	if _, err := s.orderService.GetOrderByNumber(ctx, orderNumber); err != nil {
		return nil, err
	}

	report, err := s.gateway.GetStatus(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	report.OrderNumber = orderNumber

	return s.Apply(ctx, report, now)
}

// VerifySignature checks the notification's SHA-512 signature over
// order_id + status_code + gross_amount + server key.
func (s *service) VerifySignature(report *StatusReport) error {
	if !s.config.VerifySignature {
		return nil
	}

	payload := report.OrderNumber + report.StatusCode + report.GrossAmount + s.config.ServerKey
	sum := sha512.Sum512([]byte(payload))
	if hex.EncodeToString(sum[:]) != report.SignatureKey {
		return ErrInvalidSignature
	}
	return nil
}
