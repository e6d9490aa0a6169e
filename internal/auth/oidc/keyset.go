// internal/auth/oidc/keyset.go
package oidc

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// keyFetchSlot records a key retrieval failure seen during one verification
type keyFetchSlot struct {
	err error
}

type keyFetchKey struct{}

// trackingKeySet notes key retrieval failures so they can be told apart from
// bad signatures once the verifier has flattened the error
type trackingKeySet struct {
	keys oidc.KeySet
}

// VerifySignature implements oidc.KeySet
func (k *trackingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.keys.VerifySignature(ctx, jwt)
	if err != nil && isKeyFetchFailure(err) {
		if slot, ok := ctx.Value(keyFetchKey{}).(*keyFetchSlot); ok {
			slot.err = err
		}
	}
	return payload, err
}

// isKeyFetchFailure reports whether err came from fetching the issuer's keys
// rather than from checking the signature against them
func isKeyFetchFailure(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return strings.HasPrefix(err.Error(), "fetching keys")
}

// newTrackingVerifier builds an ID token verifier over the issuer's remote key set
func newTrackingVerifier(ctx context.Context, issuer, jwksURL, clientID string) *oidc.IDTokenVerifier {
	return oidc.NewVerifier(issuer, &trackingKeySet{keys: oidc.NewRemoteKeySet(ctx, jwksURL)},
		&oidc.Config{ClientID: clientID})
}
