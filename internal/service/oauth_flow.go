package service

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/oauth"
)

// OAuthFlow drives the two-phase redirect login against one provider.
type OAuthFlow struct {
	provider oauth.Provider
	states   StateStore
	auth     AuthService
}

func NewOAuthFlow(provider oauth.Provider, states StateStore, auth AuthService) *OAuthFlow {
	return &OAuthFlow{provider: provider, states: states, auth: auth}
}

// Begin returns the provider URL to redirect the browser to.
func (f *OAuthFlow) Begin(ctx context.Context) (string, error) {
	state, err := f.states.Issue(ctx)
	if err != nil {
		return "", apperror.Wrap(err, "failed to start oauth flow")
	}
	return f.provider.AuthCodeURL(state), nil
}

// Complete validates the callback and signs the user in.
func (f *OAuthFlow) Complete(ctx context.Context, state, code string, client domain.ClientInfo) (*Session, error) {
	ok, err := f.states.Consume(ctx, state)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to check oauth state")
	}
	if !ok {
		return nil, apperror.Unauthenticated("invalid oauth state")
	}

	if code == "" {
		return nil, apperror.Unauthenticated("missing authorization code")
	}

	profile, err := f.provider.Exchange(ctx, code)
	if err != nil {
		return nil, &apperror.Error{
			Kind:    apperror.KindUnauthenticated,
			Message: fmt.Sprintf("%s login failed", f.provider.Name()),
			Err:     err,
		}
	}

	return f.auth.LoginWithProvider(ctx, f.provider.Name(), profile, client)
}
