package chatrelay

import "context"

// TextGenerator produces text for a prompt. Implementations wrap a
// generative-AI text provider.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64) (string, error)
}

// ImageGenerator produces one or more images for a prompt.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string) ([][]byte, error)
}

// RelayClient calls the relay's interact endpoint on behalf of a user. The
// token is sent as a bearer credential; an empty token sends none.
//
// Errors wrap ErrUnauthorized (401/403), ErrRateLimited (429),
// ErrBadResponse (any other non-OK status) or ErrConnect (the request never
// reached the relay).
type RelayClient interface {
	Interact(ctx context.Context, token string, req InteractRequest) (InteractResponse, error)
}

// Authenticator exchanges user credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Credential, error)
}
