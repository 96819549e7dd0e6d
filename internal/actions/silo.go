package actions

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/contracts"
	"github.com/AIAleph/rodeo_rewards/internal/units"
)

const (
	SiloDecimals   = 18
	MinVestingDays = 15
	MaxVestingDays = 180
	secondsPerDay  = 86400
)

// Silo holds the addresses of the staking flow: RDO is staked into xRDO,
// whose allocation earns from the dividends contract.
type Silo struct {
	RDO       common.Address
	XRDO      common.Address
	Dividends common.Address
	Owner     common.Address
	Allowance *big.Int // RDO allowance of owner to xRDO
}

// SiloDeposit plans staking amount RDO and allocating it to dividends.
func SiloDeposit(s Silo, amount string) ([]Call, error) {
	v, err := parseAmount(amount, SiloDecimals)
	if err != nil {
		return nil, err
	}
	mint := Call{To: s.XRDO, Operation: contracts.SiloMintAndAllocate, Args: []interface{}{big.NewInt(0), v, s.Owner}}
	return withApproval(s.Allowance, v, s.RDO, s.XRDO, mint), nil
}

// SiloWithdraw plans deallocating amount xRDO and starting a vesting burn
// over days. The burn carries 99% of the amount.
func SiloWithdraw(s Silo, amount string, days int) ([]Call, error) {
	v, err := parseAmount(amount, SiloDecimals)
	if err != nil {
		return nil, err
	}
	if days < MinVestingDays || days > MaxVestingDays {
		return nil, fmt.Errorf("vesting days %d outside [%d, %d]", days, MinVestingDays, MaxVestingDays)
	}
	burn := new(big.Int).Mul(v, big.NewInt(99))
	burn.Quo(burn, big.NewInt(100))
	return []Call{
		{To: s.XRDO, Operation: contracts.SiloDeallocate, Args: []interface{}{big.NewInt(0), v}},
		{To: s.XRDO, Operation: contracts.SiloBurn, Args: []interface{}{burn, big.NewInt(int64(days) * secondsPerDay)}},
	}, nil
}

// SiloClaim plans claiming accrued dividends.
func SiloClaim(s Silo) []Call {
	return []Call{{To: s.Dividends, Operation: contracts.DividendsClaim}}
}

// VestedAmount previews the RDO received when burning amount xRDO over days:
// half at the minimum period, rising linearly to all of it at the maximum.
func VestedAmount(amount *big.Int, days int) *big.Int {
	half := new(big.Int).Quo(units.One, big.NewInt(2))
	ramp := new(big.Int).Mul(half, big.NewInt(int64(days-MinVestingDays)))
	ramp.Quo(ramp, big.NewInt(MaxVestingDays-MinVestingDays))
	factor := ramp.Add(ramp, half)
	out := new(big.Int).Mul(amount, factor)
	return out.Quo(out, units.One)
}
