package history

import (
	"context"
	"fmt"
	"reflect"
)

type ownerKey struct{}

// WithOwner returns a context carrying an ownership token.
// Transactions remember the token of the context that created them; a
// transaction handed to another logical caller is rebound with Continue.
// Tokens are compared with ==, so like context.WithValue keys WithOwner
// panics if token is not comparable.
func WithOwner(ctx context.Context, token any) context.Context {
	if token != nil && !reflect.TypeOf(token).Comparable() {
		panic(fmt.Sprintf("history: owner token of type %T is not comparable", token))
	}
	return context.WithValue(ctx, ownerKey{}, token)
}

// OwnerFrom returns the ownership token carried by ctx, or nil.
func OwnerFrom(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(ownerKey{})
}
