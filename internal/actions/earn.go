package actions

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/contracts"
)

// EarnDecimals is the scale of the lending pools' asset (USDC).
const EarnDecimals = 6

// Pool is the state the earn page is rendered with.
type Pool struct {
	Address   common.Address
	Asset     common.Address
	Owner     common.Address
	Shares    *big.Int // owner's pool shares
	Supplied  *big.Int // owner's shares valued in asset
	Allowance *big.Int // asset allowance of owner to the pool
}

// EarnDeposit plans a pool deposit of amount asset units.
func EarnDeposit(p Pool, amount string) ([]Call, error) {
	v, err := parseAmount(amount, EarnDecimals)
	if err != nil {
		return nil, err
	}
	mint := Call{To: p.Address, Operation: contracts.PoolMint, Args: []interface{}{v, p.Owner}}
	return withApproval(p.Allowance, v, p.Asset, p.Address, mint), nil
}

// EarnWithdraw plans a withdrawal of amount asset units, converted to shares
// and capped at the owner's balance.
func EarnWithdraw(p Pool, amount string) ([]Call, error) {
	v, err := parseAmount(amount, EarnDecimals)
	if err != nil {
		return nil, err
	}
	shares := zeroIfNil(p.Shares)
	supplied := zeroIfNil(p.Supplied)
	if supplied.Sign() == 0 {
		return nil, fmt.Errorf("withdraw: nothing supplied: %w", ErrZeroDivisor)
	}
	burn := new(big.Int).Mul(v, shares)
	burn.Quo(burn, supplied)
	if burn.Cmp(shares) > 0 {
		burn.Set(shares)
	}
	return []Call{{To: p.Address, Operation: contracts.PoolBurn, Args: []interface{}{burn, p.Owner}}}, nil
}
