package auth

import "context"

// Principal is the authenticated entity a token resolves to.
type Principal struct {
	ID       string
	Username string
	Email    string
	FullName string
}

// Identity is the principal attached to a single request.
type Identity struct {
	Subject   string
	Principal Principal
}

// Owns reports whether ownerID is this identity's subject.
func (i *Identity) Owns(ownerID string) bool {
	return i != nil && i.Subject != "" && i.Subject == ownerID
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
