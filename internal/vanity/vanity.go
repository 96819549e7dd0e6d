// Package vanity searches random secp256k1 keys, or BIP39 wallets, for an
// address prefix.
package vanity

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"

	"github.com/AIAleph/rodeo_rewards/internal/logging"
)

var (
	ErrInvalidPrefix = errors.New("invalid prefix")
	ErrExhausted     = errors.New("no match within attempt limit")
)

// Options controls a search. Workers <= 0 uses one worker per CPU and
// MaxAttempts == 0 searches until a match or cancellation. With Mnemonic set
// every candidate is a fresh 12-word phrase derived at DefaultPath.
type Options struct {
	Prefix      string
	Workers     int
	MaxAttempts uint64
	Mnemonic    bool
}

// Result is a matching key. Mnemonic is empty for raw-key searches.
type Result struct {
	Address    common.Address
	PrivateKey string // 0x-prefixed hex
	Mnemonic   string
	Attempts   uint64
}

// generateKey is swapped in tests.
var generateKey = crypto.GenerateKey

func candidate(withMnemonic bool) (*ecdsa.PrivateKey, string, error) {
	if !withMnemonic {
		key, err := generateKey()
		return key, "", err
	}
	phrase, err := generateMnemonic()
	if err != nil {
		return nil, "", err
	}
	key, err := KeyFromMnemonic(phrase)
	return key, phrase, err
}

// NormalizePrefix strips an optional 0x and lower-cases the prefix, rejecting
// non-hex characters and prefixes longer than an address.
func NormalizePrefix(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "0x")
	if len(p) > 2*common.AddressLength {
		return "", fmt.Errorf("%w: %d hex digits exceeds an address", ErrInvalidPrefix, len(p))
	}
	for _, r := range p {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, p)
		}
	}
	return p, nil
}

// Search runs workers that generate keys until one address starts with the
// prefix. The first match wins and stops the others.
func Search(ctx context.Context, opts Options) (Result, error) {
	prefix, err := NormalizePrefix(opts.Prefix)
	if err != nil {
		return Result{}, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		attempts atomic.Uint64
		once     sync.Once
		found    *ecdsa.PrivateKey
		phrase   string
		foundAt  uint64
	)
	g, gctx := errgroup.WithContext(searchCtx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for gctx.Err() == nil {
				n := attempts.Add(1)
				if opts.MaxAttempts > 0 && n > opts.MaxAttempts {
					return nil
				}
				key, words, err := candidate(opts.Mnemonic)
				if err != nil {
					return fmt.Errorf("generate key: %w", err)
				}
				addr := crypto.PubkeyToAddress(key.PublicKey)
				if strings.HasPrefix(hex.EncodeToString(addr[:]), prefix) {
					once.Do(func() {
						found = key
						phrase = words
						foundAt = n
						cancel()
					})
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	total := attempts.Load()
	if opts.MaxAttempts > 0 && total > opts.MaxAttempts {
		total = opts.MaxAttempts
	}
	if found == nil {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %d attempts for prefix %q", ErrExhausted, total, prefix)
	}
	res := Result{
		Address:    crypto.PubkeyToAddress(found.PublicKey),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(found)),
		Mnemonic:   phrase,
		Attempts:   foundAt,
	}
	logging.Logger().Info("vanity_found",
		"component", "vanity",
		"prefix", prefix,
		"address", res.Address.Hex(),
		"attempts", res.Attempts,
		"mnemonic", opts.Mnemonic,
		"workers", workers,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
