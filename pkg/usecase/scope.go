package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

type ctxStoreKey struct{}

// WithStore binds store to ctx for adapters that receive it implicitly
func WithStore(ctx context.Context, store *RiskStore) context.Context {
	return context.WithValue(ctx, ctxStoreKey{}, store)
}

// StoreFrom returns the store bound to ctx. It panics when none is bound:
// that is a wiring defect, not a user or data condition.
func StoreFrom(ctx context.Context) *RiskStore {
	if store, ok := ctx.Value(ctxStoreKey{}).(*RiskStore); ok && store != nil {
		return store
	}
	panic(goerr.Wrap(ErrStoreNotBound, "StoreFrom called outside a store scope"))
}
