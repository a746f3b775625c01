package shared

import "context"

// Identity is the verified caller attached to every inbound operation.
// Verification happens upstream; the core trusts it unconditionally.
type Identity struct {
	ActorID   string
	Role      string
	TenantKey string
}

// Valid reports whether the identity carries the minimum fields.
func (id Identity) Valid() bool {
	return id.ActorID != "" && id.TenantKey != ""
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
