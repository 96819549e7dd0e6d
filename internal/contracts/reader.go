package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/eth"
)

// Reader performs typed view calls through a Provider.
type Reader struct {
	p eth.Provider
}

func NewReader(p eth.Provider) *Reader { return &Reader{p: p} }

// Call runs a view operation against the latest block and returns the decoded outputs.
func (r *Reader) Call(ctx context.Context, to common.Address, name string, args ...interface{}) ([]interface{}, error) {
	op, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if op.Mutability != View {
		return nil, fmt.Errorf("%w: %s", ErrNotView, name)
	}
	data, err := Pack(name, args...)
	if err != nil {
		return nil, err
	}
	res, err := r.p.Call(ctx, eth.CallMsg{To: to, Data: data}, "latest")
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", name, to.Hex(), err)
	}
	return Unpack(name, res)
}

func (r *Reader) bigInt(ctx context.Context, to common.Address, name string, args ...interface{}) (*big.Int, error) {
	out, err := r.Call(ctx, to, name, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", name, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", name, out[0])
	}
	return v, nil
}

func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return r.bigInt(ctx, token, ERC20Allowance, owner, spender)
}

func (r *Reader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return r.bigInt(ctx, token, ERC20BalanceOf, owner)
}

func (r *Reader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := r.Call(ctx, token, ERC20Decimals)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%s: expected 1 output, got %d", ERC20Decimals, len(out))
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected output type %T", ERC20Decimals, out[0])
	}
	return d, nil
}

// Claimed returns how much owner has already claimed from distributor for
// each of weeks, in the same order.
func (r *Reader) Claimed(ctx context.Context, distributor common.Address, weeks []*big.Int, owner common.Address) ([]*big.Int, error) {
	out, err := r.Call(ctx, distributor, RewardsGetClaimed, weeks, owner)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", RewardsGetClaimed, len(out))
	}
	claimed, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", RewardsGetClaimed, out[0])
	}
	if len(claimed) != len(weeks) {
		return nil, fmt.Errorf("%s: asked for %d weeks, got %d", RewardsGetClaimed, len(weeks), len(claimed))
	}
	return claimed, nil
}
