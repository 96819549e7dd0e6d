package eth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct{}

func (fakeProvider) ChainID(ctx context.Context) (uint64, error)     { return 42161, nil }
func (fakeProvider) BlockNumber(ctx context.Context) (uint64, error) { return 123, nil }
func (fakeProvider) Call(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	return []byte{1}, nil
}
func (fakeProvider) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) { return 21000, nil }

type errLimiter struct{}

func (errLimiter) Wait(ctx context.Context) error { return errors.New("rate limited") }

func TestRLProvider_ForwardsOnOK(t *testing.T) {
	p := WrapWithLimiter(fakeProvider{}, NewLimiter(0))
	ctx := context.Background()
	if id, err := p.ChainID(ctx); err != nil || id != 42161 {
		t.Fatalf("id=%d err=%v", id, err)
	}
	if bn, err := p.BlockNumber(ctx); err != nil || bn != 123 {
		t.Fatalf("bn=%d err=%v", bn, err)
	}
	if out, err := p.Call(ctx, CallMsg{}, ""); err != nil || len(out) != 1 {
		t.Fatalf("out=%x err=%v", out, err)
	}
	if gas, err := p.EstimateGas(ctx, CallMsg{}); err != nil || gas != 21000 {
		t.Fatalf("gas=%d err=%v", gas, err)
	}
}

func TestRLProvider_PropagatesLimiterError(t *testing.T) {
	rp := RLProvider{p: fakeProvider{}, l: errLimiter{}}
	ctx := context.Background()
	if _, err := rp.ChainID(ctx); err == nil {
		t.Fatal("expected error")
	}
	if _, err := rp.BlockNumber(ctx); err == nil {
		t.Fatal("expected error")
	}
	if _, err := rp.Call(ctx, CallMsg{}, ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := rp.EstimateGas(ctx, CallMsg{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewProvider_WrapsLimiterAndValidates(t *testing.T) {
	if _, err := NewProvider("  ", 1, 0, 0); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	p, err := NewProvider("http://localhost:8545", 5, 3, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	rl, ok := p.(RLProvider)
	if !ok {
		t.Fatalf("expected RLProvider wrapper, got %T", p)
	}
	hp := rl.p.(*httpProvider)
	if hp.maxRetries != 3 || hp.backoffBase != 50*time.Millisecond {
		t.Fatalf("retry tuning not applied: %+v", hp)
	}
}

func TestNewLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLimiter_Cancel(t *testing.T) {
	l := NewLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}

func TestLimiter_ImmediateTick(t *testing.T) {
	l := NewLimiter(2000000000)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
}

func TestLimiter_Spacing(t *testing.T) {
	l := NewLimiter(20)
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 30*time.Millisecond {
		t.Fatalf("second token after %v, want ~50ms", d)
	}
}
