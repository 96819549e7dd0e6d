package actions

import (
	"fmt"
	"math/big"

	"github.com/AIAleph/rodeo_rewards/internal/units"
)

// Leverage returns borrow / (collateral * price), all 18-decimal fixed point.
func Leverage(borrow, collateral, price *big.Int) (*big.Int, error) {
	value := new(big.Int).Mul(collateral, price)
	value.Quo(value, units.One)
	if value.Sign() == 0 {
		return nil, fmt.Errorf("leverage: zero collateral value: %w", ErrZeroDivisor)
	}
	out := new(big.Int).Mul(borrow, units.One)
	return out.Quo(out, value), nil
}

// OpenPreview is what the open form shows while the user types.
type OpenPreview struct {
	Leverage *big.Int
	FarmAPY  *big.Int // strategy APY scaled by leverage
	EarnAPY  *big.Int // borrow cost scaled by leverage
	NetAPY   *big.Int
}

// PreviewOpen computes leverage and APYs for a prospective position. Amounts
// are decimal strings at 18 decimals; APYs and price are raw 18-decimal integers.
func PreviewOpen(borrow, collateral string, price, farmAPY, earnAPY *big.Int) (OpenPreview, error) {
	b, err := units.ParseUnits(borrow, 18)
	if err != nil {
		return OpenPreview{}, fmt.Errorf("%w: %q", ErrInvalidAmount, borrow)
	}
	c, err := units.ParseUnits(collateral, 18)
	if err != nil {
		return OpenPreview{}, fmt.Errorf("%w: %q", ErrInvalidAmount, collateral)
	}
	lev, err := Leverage(b, c, price)
	if err != nil {
		return OpenPreview{}, err
	}
	scale := func(v *big.Int) *big.Int {
		out := new(big.Int).Mul(lev, v)
		return out.Quo(out, units.One)
	}
	return OpenPreview{
		Leverage: lev,
		FarmAPY:  scale(farmAPY),
		EarnAPY:  scale(earnAPY),
		NetAPY:   scale(new(big.Int).Sub(farmAPY, earnAPY)),
	}, nil
}

// PositionLeverage returns the leverage of an open position given the
// collateral token price (18 decimals).
func PositionLeverage(pos Position, price *big.Int, tokenDecimals int) (*big.Int, error) {
	value := new(big.Int).Mul(zeroIfNil(pos.Collateral), price)
	value.Quo(value, units.Pow10(tokenDecimals))
	if value.Sign() == 0 {
		return nil, fmt.Errorf("position leverage: zero collateral value: %w", ErrZeroDivisor)
	}
	out := new(big.Int).Mul(zeroIfNil(pos.SharesValue), units.One)
	return out.Quo(out, value), nil
}
