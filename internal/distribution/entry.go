package distribution

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/merkle"
	"github.com/AIAleph/rodeo_rewards/internal/units"
)

// TokenDecimals is the fixed-point scale applied to every amount.
const TokenDecimals = 18

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidRow     = errors.New("invalid row")
)

// Entry is one recipient and its scaled amount.
type Entry struct {
	Recipient common.Address
	Amount    *big.Int
}

// Leaf commits to the entry as keccak256(abi.encodePacked(address, uint256)).
func (e Entry) Leaf() common.Hash {
	return merkle.Keccak256(e.Recipient.Bytes(), common.LeftPadBytes(e.Amount.Bytes(), 32))
}

// ParseAddress accepts a 20-byte hex address with or without the 0x prefix.
// All-lower or all-upper input is accepted as is; mixed case must carry a
// valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	body := s
	if len(body) >= 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		body = body[2:]
	}
	if len(body) != 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(body)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// ParseAmount truncates a decimal token amount to whole tokens and scales it
// to TokenDecimals. "100.7" becomes 100 * 10^18.
func ParseAmount(s string) (*big.Int, error) {
	v, err := units.ParseWholeUnits(s, TokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, strings.TrimSpace(s))
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %q exceeds uint256", ErrInvalidAmount, strings.TrimSpace(s))
	}
	return v, nil
}

// ReadCSV parses "recipient,amount" lines. Blank lines are skipped; any other
// malformed line fails the whole read.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("line %d: %w: want 2 fields, got %d", line, ErrInvalidRow, len(rec))
		}
		addr, err := ParseAddress(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := ParseAmount(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, Entry{Recipient: addr, Amount: amount})
	}
	return entries, nil
}

// Total sums the entry amounts.
func Total(entries []Entry) *big.Int {
	total := new(big.Int)
	for _, e := range entries {
		total.Add(total, e.Amount)
	}
	return total
}
