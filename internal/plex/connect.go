package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"curator/internal/config"
)

// Connect probes the configured addresses in order and returns a client for
// the first server that answers. A rejected token aborts immediately since
// every candidate address would fail the same way.
func Connect(ctx context.Context, creds config.Credentials, timeout time.Duration) (*Client, Identity, error) {
	doer := &http.Client{Timeout: timeout}

	var lastErr error
	for _, addr := range creds.Addresses() {
		client := NewClient(addr, creds.Token, doer)
		identity, err := client.Identity(ctx)
		if err == nil {
			return client, identity, nil
		}
		if errors.Is(err, ErrUnauthorized) {
			return nil, Identity{}, err
		}
		lastErr = fmt.Errorf("connect to %s: %w", addr, err)
	}
	if lastErr == nil {
		lastErr = errors.New("plex: no server address configured")
	}
	return nil, Identity{}, lastErr
}
