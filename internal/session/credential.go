package session

import (
	"context"
	"sync"
)

// Credential is the bearer token of a session plus the identity cached
// alongside it
type Credential struct {
	AccessToken string
	UserID      string
	Username    string
}

// Valid reports whether the credential can authorize upstream calls
func (c Credential) Valid() bool {
	return c.AccessToken != ""
}

// Bootstrap holds a preconfigured credential that logs in the first
// session asking for it. Once taken it is gone for the life of the process
// so that logging out actually logs out.
type Bootstrap struct {
	mu       sync.Mutex
	cred     Credential
	consumed bool
}

// NewBootstrap creates the holder; it is only usable when both the token
// and the user id are set
func NewBootstrap(accessToken, userID string) *Bootstrap {
	return &Bootstrap{
		cred: Credential{AccessToken: accessToken, UserID: userID},
	}
}

// Available reports whether Take would succeed
func (b *Bootstrap) Available() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available()
}

func (b *Bootstrap) available() bool {
	return !b.consumed && b.cred.AccessToken != "" && b.cred.UserID != ""
}

// Take hands out the credential exactly once
func (b *Bootstrap) Take() (Credential, bool) {
	if b == nil {
		return Credential{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.available() {
		return Credential{}, false
	}
	b.consumed = true
	cred := b.cred
	b.cred = Credential{}
	return cred, true
}

type ctxKey struct{}

// WithCredential stores the credential in the request context
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the credential attached by RequireLogin
func FromContext(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(ctxKey{}).(Credential)
	return c, ok && c.Valid()
}
