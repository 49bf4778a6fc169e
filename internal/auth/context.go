package auth

import (
	"context"
)

type contextKey string

const operatorKey contextKey = "operator"

// Operator is the authenticated office user carried in the request context.
type Operator struct {
	ID    int64
	Name  string
	Email string
	// TokenID and ExpiresAt identify the bearer token, used by logout.
	TokenID   string
	ExpiresAt int64
}

func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// FromContext returns the operator placed by Middleware.
func FromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey).(Operator)
	return op, ok
}

// OperatorID is 0 when the context carries no operator.
func OperatorID(ctx context.Context) int64 {
	op, _ := FromContext(ctx)
	return op.ID
}
