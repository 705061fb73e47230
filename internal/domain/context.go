package domain

import "context"

type identityKey struct{}

// WithIdentity attaches the authenticated identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return nil
	}
	return &id
}
