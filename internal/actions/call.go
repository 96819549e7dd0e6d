// Package actions turns form input from the Rodeo client flows into ordered,
// unsigned contract calls. Nothing here signs or broadcasts; the caller hands
// the encoded calls to a wallet, or to a Provider for simulation.
package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/contracts"
	"github.com/AIAleph/rodeo_rewards/internal/eth"
	"github.com/AIAleph/rodeo_rewards/internal/units"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrUnknownTab     = errors.New("unknown tab")
	ErrZeroDivisor    = errors.New("division by zero")
	ErrAlreadyClaimed = errors.New("already claimed")
)

// Call is one contract call of a plan.
type Call struct {
	To        common.Address
	Operation string
	Args      []interface{}
	Value     *big.Int
}

// Encode returns the calldata for the call.
func (c Call) Encode() ([]byte, error) {
	if err := contracts.CheckValue(c.Operation, c.Value); err != nil {
		return nil, err
	}
	return contracts.Pack(c.Operation, c.Args...)
}

// Msg builds the provider request for sending the call from from.
func (c Call) Msg(from common.Address) (eth.CallMsg, error) {
	data, err := c.Encode()
	if err != nil {
		return eth.CallMsg{}, err
	}
	return eth.CallMsg{From: from, To: c.To, Data: data, Value: c.Value}, nil
}

func (c Call) String() string {
	return fmt.Sprintf("%s@%s", c.Operation, c.To.Hex())
}

// Simulate estimates gas for each call in order and stops at the first
// failure. Calls are estimated against current chain state, so a call that
// depends on an earlier approve in the same plan may revert here.
func Simulate(ctx context.Context, p eth.Provider, from common.Address, calls []Call) ([]uint64, error) {
	gas := make([]uint64, 0, len(calls))
	for i, c := range calls {
		msg, err := c.Msg(from)
		if err != nil {
			return gas, fmt.Errorf("call %d (%s): %w", i, c, err)
		}
		g, err := p.EstimateGas(ctx, msg)
		if err != nil {
			return gas, fmt.Errorf("call %d (%s): %w", i, c, err)
		}
		gas = append(gas, g)
	}
	return gas, nil
}

// parseAmount parses a positive form amount at the given decimals.
func parseAmount(s string, decimals int) (*big.Int, error) {
	v, err := units.ParseUnits(s, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if v.Sign() == 0 {
		return nil, fmt.Errorf("%w: %q is zero", ErrInvalidAmount, s)
	}
	return v, nil
}

func approve(token, spender common.Address) Call {
	return Call{To: token, Operation: contracts.ERC20Approve, Args: []interface{}{spender, new(big.Int).Set(units.MaxUint256)}}
}

// withApproval prepends an unlimited approve when allowance does not cover amount.
func withApproval(allowance, amount *big.Int, token, spender common.Address, calls ...Call) []Call {
	if allowance != nil && allowance.Cmp(amount) >= 0 {
		return calls
	}
	return append([]Call{approve(token, spender)}, calls...)
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
