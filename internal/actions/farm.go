package actions

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/contracts"
	"github.com/AIAleph/rodeo_rewards/internal/units"
)

// BorrowDecimals is the scale of borrowed USDC; repayments are entered in
// 18-decimal share value.
const (
	BorrowDecimals = 6
	RepayDecimals  = 18
)

// Edit tabs of an open position.
const (
	TabBorrow   = "borrow"
	TabRepay    = "repay"
	TabDeposit  = "deposit"
	TabWithdraw = "withdraw"
)

// FarmOpenParams describes a new leveraged position.
type FarmOpenParams struct {
	PositionManager common.Address
	Strategy        *big.Int
	Token           common.Address
	TokenDecimals   int
	Owner           common.Address
	Allowance       *big.Int // collateral token allowance to the position manager
}

// FarmOpen plans opening a position with collateral (token units) and borrow (USDC).
func FarmOpen(p FarmOpenParams, collateral, borrow string) ([]Call, error) {
	if p.Strategy == nil || p.Strategy.Sign() < 0 {
		return nil, fmt.Errorf("invalid strategy %v", p.Strategy)
	}
	c, err := parseAmount(collateral, p.TokenDecimals)
	if err != nil {
		return nil, err
	}
	b, err := units.ParseUnits(borrow, BorrowDecimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, borrow)
	}
	open := Call{
		To:        p.PositionManager,
		Operation: contracts.PositionsOpen,
		Args:      []interface{}{p.Strategy, p.Token, c, b, p.Owner},
	}
	return withApproval(p.Allowance, c, p.Token, p.PositionManager, open), nil
}

// Position is an open farm position as served by the backend.
type Position struct {
	Index       *big.Int
	Token       common.Address
	Shares      *big.Int // borrow shares held
	SharesValue *big.Int // value of those shares, 18 decimals
	Collateral  *big.Int // collateral in token units
	BorrowValue *big.Int
}

// FarmEditParams is the state the edit page is rendered with.
type FarmEditParams struct {
	PositionManager common.Address
	Position        Position
	TokenDecimals   int
	Allowance       *big.Int // collateral token allowance, checked on deposit
}

// FarmEdit plans one edit of an existing position. The edit call takes signed
// deltas of borrow shares and collateral.
func FarmEdit(p FarmEditParams, tab, amount string) ([]Call, error) {
	var decimals int
	switch tab {
	case TabBorrow:
		decimals = BorrowDecimals
	case TabRepay:
		decimals = RepayDecimals
	case TabDeposit, TabWithdraw:
		decimals = p.TokenDecimals
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	v, err := parseAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	pos := p.Position
	if pos.Index == nil {
		return nil, fmt.Errorf("position has no index")
	}
	edit := func(borrowDelta, collateralDelta *big.Int) Call {
		return Call{
			To:        p.PositionManager,
			Operation: contracts.PositionsEdit,
			Args:      []interface{}{pos.Index, borrowDelta, collateralDelta},
		}
	}
	zero := big.NewInt(0)

	switch tab {
	case TabBorrow:
		return []Call{edit(v, zero)}, nil
	case TabRepay:
		shares := zeroIfNil(pos.Shares)
		value := zeroIfNil(pos.SharesValue)
		if value.Sign() == 0 {
			return nil, fmt.Errorf("repay: position has no borrow value: %w", ErrZeroDivisor)
		}
		s := new(big.Int).Mul(v, shares)
		s.Quo(s, value)
		if s.Cmp(shares) > 0 {
			s.Set(shares)
		}
		return []Call{edit(s.Neg(s), zero)}, nil
	case TabDeposit:
		return withApproval(p.Allowance, v, pos.Token, p.PositionManager, edit(zero, v)), nil
	default:
		return []Call{edit(zero, new(big.Int).Neg(v))}, nil
	}
}
