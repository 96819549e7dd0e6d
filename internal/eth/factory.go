package eth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AIAleph/rodeo_rewards/internal/config"
)

// NewProvider constructs a concrete Provider for the given endpoint and wraps it
// with a rate limiter. Validation is centralized in NewHTTPProvider.
func NewProvider(endpoint string, rateLimit int, retries int, backoff time.Duration) (Provider, error) {
	base, err := NewHTTPProvider(strings.TrimSpace(endpoint), &http.Client{})
	if err != nil {
		return nil, err
	}
	if hp, ok := base.(*httpProvider); ok {
		if retries >= 0 {
			hp.maxRetries = retries
		}
		if backoff > 0 {
			hp.backoffBase = backoff
		}
	}
	return WrapWithLimiter(base, NewLimiter(rateLimit)), nil
}

// Dial resolves the chain configuration to an endpoint, builds the provider
// and checks that the endpoint serves the configured network.
func Dial(ctx context.Context, cfg config.Config) (Provider, error) {
	network, endpoint, err := cfg.Chain.Resolve()
	if err != nil {
		return nil, err
	}
	p, err := NewProvider(endpoint, cfg.RateLimit, cfg.HTTPRetries, cfg.HTTPBackoffBase)
	if err != nil {
		return nil, err
	}
	if rl, ok := p.(RLProvider); ok {
		if hp, ok := rl.p.(*httpProvider); ok {
			hp.userAgent = cfg.Chain.AppName
		}
	}
	id, err := p.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id from %s: %w", config.RedactURL(endpoint), err)
	}
	if id != uint64(network.ChainID) {
		return nil, fmt.Errorf("endpoint %s serves chain %d, want %d (%s)", config.RedactURL(endpoint), id, network.ChainID, network.Name)
	}
	return p, nil
}
