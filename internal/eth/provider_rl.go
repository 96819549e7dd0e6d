package eth

import "context"

// RLProvider wraps a Provider with a Limiter.
type RLProvider struct {
	p Provider
	l Limiter
}

func WrapWithLimiter(p Provider, l Limiter) Provider { return RLProvider{p: p, l: l} }

func (r RLProvider) ChainID(ctx context.Context) (uint64, error) {
	if err := r.l.Wait(ctx); err != nil {
		return 0, err
	}
	return r.p.ChainID(ctx)
}

func (r RLProvider) BlockNumber(ctx context.Context) (uint64, error) {
	if err := r.l.Wait(ctx); err != nil {
		return 0, err
	}
	return r.p.BlockNumber(ctx)
}

func (r RLProvider) Call(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	if err := r.l.Wait(ctx); err != nil {
		return nil, err
	}
	return r.p.Call(ctx, msg, block)
}

func (r RLProvider) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	if err := r.l.Wait(ctx); err != nil {
		return 0, err
	}
	return r.p.EstimateGas(ctx, msg)
}
