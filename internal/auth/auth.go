// Package auth resolves gateway tokens to chat users. Tokens are minted by the chat
// bridge when a user opens the game from a channel, so a token names both who the
// user is and which channels they may play in.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"
)

const (
	validateTimeout = 500 * time.Millisecond
	maxResponseSize = 64 << 10
)

var (
	// ErrInvalidToken means the bridge does not recognise the token.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrWrongChannel means the token is valid but was not issued for the channel.
	ErrWrongChannel = errors.New("auth: token not valid in this channel")

	// ErrUnavailable means the bridge could not give an answer.
	ErrUnavailable = errors.New("auth: unavailable")
)

// Identity is the chat user behind a token.
type Identity struct {
	UserID   string
	Name     string
	Channels []string // empty means every channel
}

// Allows reports whether the identity may play in channel.
func (id Identity) Allows(channel string) bool {
	return len(id.Channels) == 0 || slices.Contains(id.Channels, channel)
}

// Validator resolves a token presented for a channel. A nil identity with a nil error
// means tokens are not checked and the client's claimed identity stands.
type Validator interface {
	Validate(ctx context.Context, token, channel string) (*Identity, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token, channel string) (*Identity, error)

func (f ValidatorFunc) Validate(ctx context.Context, token, channel string) (*Identity, error) {
	return f(ctx, token, channel)
}

// NoopValidator accepts every client as who it says it is.
type NoopValidator struct{}

func (NoopValidator) Validate(context.Context, string, string) (*Identity, error) {
	return nil, nil
}

// HTTPValidator asks the chat bridge about a token:
//
//	POST {"token": "...", "channel": "general"}
//	200  {"valid": true, "user_id": "U123", "display_name": "alice", "channels": ["general"]}
//
// 401, 403 and 404 reject the token; anything else the bridge says, or failing to
// reach it, is ErrUnavailable.
type HTTPValidator struct {
	url    string
	secret string
	client *http.Client
}

// NewHTTPValidator creates a validator for url. A non-empty secret is sent in the
// X-Admin-Secret header.
func NewHTTPValidator(url, secret string) *HTTPValidator {
	return &HTTPValidator{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: validateTimeout},
	}
}

type tokenQuery struct {
	Token   string `json:"token"`
	Channel string `json:"channel"`
}

type tokenInfo struct {
	Valid       bool     `json:"valid"`
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Channels    []string `json:"channels"`
	Error       string   `json:"error"`
}

func (v *HTTPValidator) Validate(ctx context.Context, token, channel string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	info, err := v.lookup(ctx, tokenQuery{Token: token, Channel: channel})
	if err != nil {
		return nil, err
	}
	if !info.Valid || info.UserID == "" {
		if info.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidToken, info.Error)
		}
		return nil, ErrInvalidToken
	}

	id := &Identity{UserID: info.UserID, Name: info.DisplayName, Channels: info.Channels}
	if !id.Allows(channel) {
		return nil, fmt.Errorf("%w: %s", ErrWrongChannel, channel)
	}
	return id, nil
}

func (v *HTTPValidator) lookup(ctx context.Context, q tokenQuery) (tokenInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	body, err := json.Marshal(q)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return tokenInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.secret != "" {
		req.Header.Set("X-Admin-Secret", v.secret)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return tokenInfo{}, ErrInvalidToken
	default:
		return tokenInfo{}, fmt.Errorf("%w: bridge returned %d", ErrUnavailable, resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&info); err != nil {
		return tokenInfo{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return info, nil
}
