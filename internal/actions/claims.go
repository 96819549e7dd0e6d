package actions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/contracts"
	"github.com/AIAleph/rodeo_rewards/internal/distribution"
)

// RewardsClaim plans claiming one week of a published distribution for user.
// The week identifier must be a decimal integer since the distributor keys
// roots by uint256.
func RewardsClaim(distributor common.Address, week string, user distribution.User) ([]Call, error) {
	w, err := weekIndex(week)
	if err != nil {
		return nil, err
	}
	e, err := user.Entry()
	if err != nil {
		return nil, err
	}
	proof := make([][32]byte, len(user.Proof))
	for i, h := range user.Proof {
		proof[i] = h
	}
	return []Call{{
		To:        distributor,
		Operation: contracts.RewardsClaim,
		Args: []interface{}{
			e.Recipient,
			[]*big.Int{w},
			[]*big.Int{e.Amount},
			[][][32]byte{proof},
		},
	}}, nil
}

func weekIndex(week string) (*big.Int, error) {
	w, ok := new(big.Int).SetString(week, 10)
	if !ok || w.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is not a numeric week", distribution.ErrInvalidWeek, week)
	}
	return w, nil
}

// ClaimedWeeks reads from distributor how much owner has claimed in each week.
func ClaimedWeeks(ctx context.Context, r *contracts.Reader, distributor, owner common.Address, weeks []string) ([]*big.Int, error) {
	idx := make([]*big.Int, len(weeks))
	for i, w := range weeks {
		v, err := weekIndex(w)
		if err != nil {
			return nil, err
		}
		idx[i] = v
	}
	return r.Claimed(ctx, distributor, idx, owner)
}

// Unclaimed returns amount minus what was already claimed, or
// ErrAlreadyClaimed when nothing is left.
func Unclaimed(amount, claimed *big.Int) (*big.Int, error) {
	left := new(big.Int).Sub(amount, zeroIfNil(claimed))
	if left.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s of %s", ErrAlreadyClaimed, zeroIfNil(claimed), amount)
	}
	return left, nil
}

// VestingClaim plans claiming vesting schedule index to the caller.
func VestingClaim(vester common.Address, index *big.Int) ([]Call, error) {
	if index == nil || index.Sign() < 0 {
		return nil, fmt.Errorf("invalid vesting index %v", index)
	}
	return []Call{{To: vester, Operation: contracts.VesterClaim, Args: []interface{}{index, common.Address{}}}}, nil
}
