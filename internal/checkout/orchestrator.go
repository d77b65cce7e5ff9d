package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/logging"
	"storefront/internal/models"
)

type OrderAPI interface {
	CreateOrder(ctx context.Context, req apiclient.CreateOrderRequest) (apiclient.CreateOrderResponse, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context)
}

// Identity answers who is checking out.
type Identity interface {
	IsAuthenticated() bool
	CurrentUser() (models.User, bool)
}

// State of the current checkout attempt.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateInvalid     State = "invalid"
	StateSubmitting  State = "submitting"
	StateFailed      State = "failed"
	StateRedirecting State = "redirecting"
)

type PaymentHandoff struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
	OrderID          string `json:"orderId"`
	Totals           Totals `json:"totals"`
}

type Options struct {
	CallbackURL    string
	IdempotencyKey func() string
	Logger         *zap.Logger
}

type Orchestrator struct {
	orders   OrderAPI
	cart     CartClearer
	identity Identity
	opts     Options
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr error
}

func NewOrchestrator(orders OrderAPI, cart CartClearer, identity Identity, opts Options) *Orchestrator {
	if opts.IdempotencyKey == nil {
		opts.IdempotencyKey = uuid.NewString
	}
	return &Orchestrator{
		orders:   orders,
		cart:     cart,
		identity: identity,
		opts:     opts,
		logger:   logging.Component(opts.Logger, "checkout"),
		state:    StateIdle,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError is the error that ended the previous attempt, if any.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// begin moves the attempt to Validating unless another attempt is still
// validating or submitting. Every path out of Submit ends in a terminal state.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateValidating || o.state == StateSubmitting {
		return false
	}
	o.state = StateValidating
	o.lastErr = nil
	return true
}

func (o *Orchestrator) transition(s State, err error) {
	o.mu.Lock()
	o.state = s
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) fail(s State, err *Error) (PaymentHandoff, error) {
	o.transition(s, err)
	return PaymentHandoff{}, err
}

// Submit places the order for the given cart and returns where to send the
// shopper to pay. Precondition failures never reach the network.
func (o *Orchestrator) Submit(ctx context.Context, draft Draft, snap cart.Snapshot) (PaymentHandoff, error) {
	if !o.begin() {
		return PaymentHandoff{}, &Error{Kind: KindInProgress, Message: "Your order is already being processed"}
	}

	if snap.Empty() {
		return o.fail(StateInvalid, &Error{Kind: KindEmptyCart, Message: "Your cart is empty"})
	}
	user, ok := o.identity.CurrentUser()
	if !o.identity.IsAuthenticated() || !ok {
		return o.fail(StateInvalid, &Error{Kind: KindNotAuthenticated, Message: "Please log in to continue"})
	}
	if fields := Validate(draft); !fields.Valid() {
		return o.fail(StateInvalid, &Error{Kind: KindValidation, Message: "Please correct the highlighted fields", Fields: fields})
	}

	o.transition(StateSubmitting, nil)

	d := draft.Normalized()
	totals := ComputeTotal(snap.Total, d.State)
	req := apiclient.CreateOrderRequest{
		Address:        apiclient.OrderAddress{Street: d.Address},
		Phone:          d.Phone,
		DiscountCode:   d.DiscountCode,
		Email:          user.Email,
		State:          d.State,
		City:           d.City,
		PaymentMethod:  apiclient.PaymentMethodCard,
		Items:          orderLines(snap.Items),
		Subtotal:       totals.Subtotal,
		DeliveryFee:    totals.DeliveryFee,
		Total:          totals.Total,
		CallbackURL:    o.opts.CallbackURL,
		IdempotencyKey: o.opts.IdempotencyKey(),
	}

	res, err := o.orders.CreateOrder(ctx, req)
	if err != nil {
		if IsStockConflict(err) {
			o.logger.Info("order rejected for stock", zap.String("user_id", user.ID), zap.Error(err))
			return o.fail(StateFailed, &Error{
				Kind:    KindStockConflict,
				Message: apiclient.MessageOr(err, "Some items in your cart are no longer available"),
				Err:     err,
			})
		}
		o.logger.Error("create order failed", zap.String("user_id", user.ID), zap.Error(err))
		return o.fail(StateFailed, &Error{
			Kind:    KindRemote,
			Message: apiclient.MessageOr(err, "Failed to process order. Please try again."),
			Err:     err,
		})
	}
	if res.Payment.AuthorizationURL == "" {
		o.logger.Error("order created without payment url", zap.String("order_id", res.Order.ID))
		return o.fail(StateFailed, &Error{Kind: KindRemote, Message: "Payment could not be started. Please try again."})
	}

	// The placed order supersedes the cart.
	o.cart.ClearCart(ctx)
	o.transition(StateRedirecting, nil)

	o.logger.Info("order placed",
		zap.String("order_id", res.Order.ID),
		zap.String("reference", res.Payment.Reference),
		zap.Float64("total", totals.Total))

	return PaymentHandoff{
		AuthorizationURL: res.Payment.AuthorizationURL,
		Reference:        res.Payment.Reference,
		OrderID:          res.Order.ID,
		Totals:           totals,
	}, nil
}

func orderLines(items []models.CartItem) []apiclient.OrderLine {
	lines := make([]apiclient.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, apiclient.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
