package passport

import (
	"context"

	"github.com/andrebq/turnstile/account"
)

type (
	key byte
)

var (
	userKey = key(1)
)

func WithUser(ctx context.Context, user *account.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user restored by Session, if any.
func UserFromContext(ctx context.Context) (*account.User, bool) {
	u, ok := ctx.Value(userKey).(*account.User)
	return u, ok && u != nil
}
