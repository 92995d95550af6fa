package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

// ErrUnsupported is returned when a strategy cannot be used in this setup.
var ErrUnsupported = errors.New("auth strategy not supported")

// Credentials start a login. Each strategy reads the fields it needs.
type Credentials struct {
	Email       string `json:"email,omitempty"`
	Provider    string `json:"provider,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Pending is the verification step between Initiate and Complete. It is
// handed to the caller and passed back unchanged.
type Pending struct {
	Strategy    string `json:"strategy"`
	Email       string `json:"email,omitempty"`
	Provider    string `json:"provider,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Strategy is one way to log in.
type Strategy interface {
	Name() string
	IsSupported() bool
	// Initiate starts the login and returns the pending verification step.
	Initiate(ctx context.Context, c Credentials) (Pending, error)
	// Complete finishes the login with the code the user received.
	Complete(ctx context.Context, p Pending, code string) (models.AuthResult, error)
}

// AuthClient is the remote account API used by the strategies.
type AuthClient interface {
	SendEmailCode(ctx context.Context, email string) error
	VerifyEmailCode(ctx context.Context, email, code string) (models.AuthResult, error)
	OAuthURL(ctx context.Context, provider, redirectURL string) (string, error)
	ExchangeToken(ctx context.Context, provider, token string) (models.AuthResult, error)
}

// EmailCodeStrategy logs in with a one-time code sent by mail.
type EmailCodeStrategy struct {
	Client AuthClient
}

func (s EmailCodeStrategy) Name() string      { return "email" }
func (s EmailCodeStrategy) IsSupported() bool { return s.Client != nil }

func (s EmailCodeStrategy) Initiate(ctx context.Context, c Credentials) (Pending, error) {
	if err := models.Validator().Var(c.Email, "required,email"); err != nil {
		return Pending{}, fmt.Errorf("invalid email: %w", err)
	}
	if err := s.Client.SendEmailCode(ctx, c.Email); err != nil {
		return Pending{}, err
	}
	return Pending{Strategy: s.Name(), Email: c.Email}, nil
}

func (s EmailCodeStrategy) Complete(ctx context.Context, p Pending, code string) (models.AuthResult, error) {
	if code == "" {
		return models.AuthResult{}, errors.New("missing verification code")
	}
	return s.Client.VerifyEmailCode(ctx, p.Email, code)
}

// OAuthStrategy logs in through a provider redirect. Initiate returns the
// URL to open; Complete exchanges the authorization code.
type OAuthStrategy struct {
	Client      AuthClient
	Provider    string
	RedirectURL string
}

func (s OAuthStrategy) Name() string      { return "oauth:" + s.Provider }
func (s OAuthStrategy) IsSupported() bool { return s.Client != nil && s.Provider != "" }

func (s OAuthStrategy) Initiate(ctx context.Context, c Credentials) (Pending, error) {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = s.RedirectURL
	}
	url, err := s.Client.OAuthURL(ctx, s.Provider, redirect)
	if err != nil {
		return Pending{}, err
	}
	return Pending{Strategy: s.Name(), Provider: s.Provider, RedirectURL: url}, nil
}

func (s OAuthStrategy) Complete(ctx context.Context, p Pending, code string) (models.AuthResult, error) {
	if code == "" {
		return models.AuthResult{}, errors.New("missing authorization code")
	}
	return s.Client.ExchangeToken(ctx, s.Provider, code)
}

// TokenExchangeStrategy trades a token issued elsewhere for a session.
type TokenExchangeStrategy struct {
	Client AuthClient
}

func (s TokenExchangeStrategy) Name() string      { return "token" }
func (s TokenExchangeStrategy) IsSupported() bool { return s.Client != nil }

func (s TokenExchangeStrategy) Initiate(_ context.Context, c Credentials) (Pending, error) {
	if c.Token == "" {
		return Pending{}, errors.New("missing token")
	}
	return Pending{Strategy: s.Name(), Provider: c.Provider, Token: c.Token}, nil
}

func (s TokenExchangeStrategy) Complete(ctx context.Context, p Pending, _ string) (models.AuthResult, error) {
	return s.Client.ExchangeToken(ctx, p.Provider, p.Token)
}
