// Package contracts binds logical operation names to typed contract methods.
//
// Each entry in the table names one external function of the Rodeo contracts
// (or ERC-20) together with its Solidity parameter types. The table is resolved
// once at init into go-ethereum ABI methods, so callers pack and unpack by
// name without ever building signature strings.
package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Mutability is the Solidity state mutability of an operation.
type Mutability string

const (
	View       Mutability = "view"
	NonPayable Mutability = "nonpayable"
	Payable    Mutability = "payable"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNotPayable       = errors.New("operation is not payable")
	ErrNotView          = errors.New("operation is not a view")
)

// Operation describes one contract function by logical name.
type Operation struct {
	Name       string
	Method     string
	Inputs     []string
	Outputs    []string
	Mutability Mutability
}

// Payable reports whether the operation accepts a native value.
func (o Operation) Payable() bool { return o.Mutability == Payable }

// Signature returns the canonical Solidity signature, e.g. "approve(address,uint256)".
func (o Operation) Signature() string {
	return o.Method + "(" + strings.Join(o.Inputs, ",") + ")"
}

const (
	ERC20Approve        = "erc20.approve"
	ERC20Allowance      = "erc20.allowance"
	ERC20BalanceOf      = "erc20.balanceOf"
	ERC20Decimals       = "erc20.decimals"
	PoolMint            = "pool.mint"
	PoolBurn            = "pool.burn"
	SiloMintAndAllocate = "silo.mintAndAllocate"
	SiloDeallocate      = "silo.deallocate"
	SiloBurn            = "silo.burn"
	DividendsClaim      = "dividends.claim"
	RewardsClaim        = "rewards.claim"
	RewardsGetClaimed   = "rewards.getClaimed"
	VesterClaim         = "vester.claim"
	PositionsOpen       = "positions.open"
	PositionsEdit       = "positions.edit"
)

var table = []Operation{
	{Name: ERC20Approve, Method: "approve", Inputs: []string{"address", "uint256"}, Outputs: []string{"bool"}, Mutability: NonPayable},
	{Name: ERC20Allowance, Method: "allowance", Inputs: []string{"address", "address"}, Outputs: []string{"uint256"}, Mutability: View},
	{Name: ERC20BalanceOf, Method: "balanceOf", Inputs: []string{"address"}, Outputs: []string{"uint256"}, Mutability: View},
	{Name: ERC20Decimals, Method: "decimals", Outputs: []string{"uint8"}, Mutability: View},
	{Name: PoolMint, Method: "mint", Inputs: []string{"uint256", "address"}, Mutability: NonPayable},
	{Name: PoolBurn, Method: "burn", Inputs: []string{"uint256", "address"}, Mutability: NonPayable},
	{Name: SiloMintAndAllocate, Method: "mintAndAllocate", Inputs: []string{"uint256", "uint256", "address"}, Mutability: NonPayable},
	{Name: SiloDeallocate, Method: "deallocate", Inputs: []string{"uint256", "uint256"}, Mutability: NonPayable},
	{Name: SiloBurn, Method: "burn", Inputs: []string{"uint256", "uint256"}, Mutability: NonPayable},
	{Name: DividendsClaim, Method: "claim", Mutability: NonPayable},
	{Name: RewardsClaim, Method: "claim", Inputs: []string{"address", "uint256[]", "uint256[]", "bytes32[][]"}, Mutability: NonPayable},
	{Name: RewardsGetClaimed, Method: "getClaimed", Inputs: []string{"uint256[]", "address"}, Outputs: []string{"uint256[]"}, Mutability: View},
	{Name: VesterClaim, Method: "claim", Inputs: []string{"uint256", "address"}, Mutability: NonPayable},
	{Name: PositionsOpen, Method: "open", Inputs: []string{"uint256", "address", "uint256", "uint256", "address"}, Mutability: NonPayable},
	{Name: PositionsEdit, Method: "edit", Inputs: []string{"uint256", "int256", "int256"}, Mutability: NonPayable},
}

type binding struct {
	op     Operation
	method abi.Method
}

var registry map[string]binding

func init() {
	r, err := buildRegistry(table)
	if err != nil {
		panic(err)
	}
	registry = r
}

func arguments(types []string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if err := checkType(typ); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, abi.Argument{Name: fmt.Sprintf("arg%d", i), Type: typ})
	}
	return args, nil
}

// checkType rejects integer widths the ABI parser lets through, such as uint257.
func checkType(t abi.Type) error {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		if t.Size <= 0 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("invalid integer type %q", t.String())
		}
	case abi.SliceTy, abi.ArrayTy:
		return checkType(*t.Elem)
	case abi.TupleTy:
		for _, e := range t.TupleElems {
			if err := checkType(*e); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildRegistry(ops []Operation) (map[string]binding, error) {
	out := make(map[string]binding, len(ops))
	for _, op := range ops {
		if _, dup := out[op.Name]; dup {
			return nil, fmt.Errorf("duplicate operation %q", op.Name)
		}
		switch op.Mutability {
		case View, NonPayable, Payable:
		default:
			return nil, fmt.Errorf("operation %q: bad mutability %q", op.Name, op.Mutability)
		}
		in, err := arguments(op.Inputs)
		if err != nil {
			return nil, fmt.Errorf("operation %q inputs: %w", op.Name, err)
		}
		outArgs, err := arguments(op.Outputs)
		if err != nil {
			return nil, fmt.Errorf("operation %q outputs: %w", op.Name, err)
		}
		m := abi.NewMethod(op.Method, op.Method, abi.Function, string(op.Mutability),
			op.Mutability == View, op.Payable(), in, outArgs)
		out[op.Name] = binding{op: op, method: m}
	}
	return out, nil
}

func lookup(name string) (binding, error) {
	b, ok := registry[name]
	if !ok {
		return binding{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return b, nil
}

// Lookup returns the operation registered under name.
func Lookup(name string) (Operation, error) {
	b, err := lookup(name)
	if err != nil {
		return Operation{}, err
	}
	return b.op, nil
}

// Operations lists every registered operation ordered by name.
func Operations() []Operation {
	ops := make([]Operation, 0, len(registry))
	for _, b := range registry {
		ops = append(ops, b.op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Method returns the resolved ABI method for name.
func Method(name string) (abi.Method, error) {
	b, err := lookup(name)
	if err != nil {
		return abi.Method{}, err
	}
	return b.method, nil
}

// Selector returns the 4-byte function selector for name.
func Selector(name string) ([4]byte, error) {
	var sel [4]byte
	b, err := lookup(name)
	if err != nil {
		return sel, err
	}
	copy(sel[:], b.method.ID)
	return sel, nil
}

// Pack encodes calldata (selector followed by arguments) for name.
//
// Arguments use go-ethereum's Go types: common.Address for address,
// *big.Int for (u)int256, []*big.Int for uint256[] and [][][32]byte for
// bytes32[][].
func Pack(name string, args ...interface{}) ([]byte, error) {
	b, err := lookup(name)
	if err != nil {
		return nil, err
	}
	enc, err := b.method.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", name, err)
	}
	data := make([]byte, 0, len(b.method.ID)+len(enc))
	data = append(data, b.method.ID...)
	return append(data, enc...), nil
}

// Unpack decodes return data of name.
func Unpack(name string, data []byte) ([]interface{}, error) {
	b, err := lookup(name)
	if err != nil {
		return nil, err
	}
	out, err := b.method.Outputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}
	return out, nil
}

// CheckValue rejects a non-zero native value for operations that are not payable.
func CheckValue(name string, value *big.Int) error {
	b, err := lookup(name)
	if err != nil {
		return err
	}
	if value != nil && value.Sign() != 0 && !b.op.Payable() {
		return fmt.Errorf("%w: %s", ErrNotPayable, name)
	}
	if value != nil && value.Sign() < 0 {
		return fmt.Errorf("%s: negative value %s", name, value)
	}
	return nil
}
