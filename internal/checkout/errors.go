package checkout

import (
	"errors"
	"strings"

	"storefront/internal/apiclient"
)

type Kind string

const (
	KindEmptyCart        Kind = "EMPTY_CART"
	KindNotAuthenticated Kind = "NOT_AUTHENTICATED"
	KindValidation       Kind = "VALIDATION"
	KindStockConflict    Kind = "STOCK_CONFLICT"
	KindInProgress       Kind = "IN_PROGRESS"
	KindRemote           Kind = "REMOTE"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RedirectToCart is true when the cart itself is stale or empty and the
// shopper should go back to it instead of retrying checkout.
func (e *Error) RedirectToCart() bool {
	return e.Kind == KindStockConflict || e.Kind == KindEmptyCart
}

func (e *Error) RedirectToLogin() bool {
	return e.Kind == KindNotAuthenticated
}

func KindOf(err error) Kind {
	var checkoutErr *Error
	if errors.As(err, &checkoutErr) {
		return checkoutErr.Kind
	}
	return ""
}

var stockCodes = map[string]struct{}{
	"INSUFFICIENT_STOCK": {},
	"OUT_OF_STOCK":       {},
}

// IsStockConflict decides whether an order failure means the cart ran out
// of inventory. A structured error code wins; servers that only send text
// are matched on the word "stock".
func IsStockConflict(err error) bool {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != "" {
		_, ok := stockCodes[strings.ToUpper(apiErr.Code)]
		return ok
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "stock")
}
