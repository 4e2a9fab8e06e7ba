package table

import "context"

// Ledger owns chip balances. Debit must fail with an error matching
// ErrInsufficientFunds when the balance is too low. Amounts are always positive.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int) (int, error)
	Credit(ctx context.Context, userID string, amount int) (int, error)
}

// Renderer displays a session after every state change. Errors are logged and the game
// carries on.
type Renderer interface {
	Render(ctx context.Context, v View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, v View) error

func (f RendererFunc) Render(ctx context.Context, v View) error {
	return f(ctx, v)
}

// Renderers fans a view out to several renderers and returns the first error.
type Renderers []Renderer

func (rs Renderers) Render(ctx context.Context, v View) error {
	var first error
	for _, r := range rs {
		if err := r.Render(ctx, v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// User identifies a chat user.
type User struct {
	ID   string
	Name string
}
