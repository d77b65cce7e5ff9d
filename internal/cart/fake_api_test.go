package cart

import (
	"context"
	"sync"

	"storefront/internal/models"
)

type apiCall struct {
	Op       string
	ID       string
	Quantity int
}

// fakeAPI records calls and serves a configurable server-side cart.
type fakeAPI struct {
	mu    sync.Mutex
	cart  []models.CartItem
	calls []apiCall

	getErr    error
	addErr    error
	updateErr error
	removeErr error
	clearErr  error

	onUpdate func(id string)
	// onGet runs after the server cart is read and before it is returned.
	onGet func(ctx context.Context)
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]apiCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) GetCart(ctx context.Context) ([]models.CartItem, error) {
	f.record(apiCall{Op: "get"})
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	items := cloneItems(f.cart)
	onGet := f.onGet
	f.mu.Unlock()
	if onGet != nil {
		onGet(ctx)
	}
	return items, nil
}

func (f *fakeAPI) AddToCart(ctx context.Context, productID string, quantity int) error {
	f.record(apiCall{Op: "add", ID: productID, Quantity: quantity})
	if f.addErr != nil {
		return f.addErr
	}
	f.mu.Lock()
	f.cart = append(f.cart, models.CartItem{
		ID:        "row-" + productID,
		ProductID: productID,
		Quantity:  quantity,
		Product:   &models.Product{ID: productID, Price: 1500, Stock: 10},
	})
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	f.record(apiCall{Op: "update", ID: id, Quantity: quantity})
	if f.onUpdate != nil {
		f.onUpdate(id)
	}
	return f.updateErr
}

func (f *fakeAPI) RemoveFromCart(ctx context.Context, id string) error {
	f.record(apiCall{Op: "remove", ID: id})
	return f.removeErr
}

func (f *fakeAPI) ClearCart(ctx context.Context) error {
	f.record(apiCall{Op: "clear"})
	return f.clearErr
}

func lineItem(id string, price float64, quantity, stock int) models.CartItem {
	return models.CartItem{
		ID:        id,
		ProductID: "prod-" + id,
		Quantity:  quantity,
		Product:   &models.Product{ID: "prod-" + id, Name: "Product " + id, Price: price, Stock: stock},
	}
}
