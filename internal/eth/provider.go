package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Provider is the RPC surface the client tooling needs: reading contract
// state and simulating calls before they are handed to a wallet for signing.
type Provider interface {
	// ChainID returns the chain id reported by the endpoint.
	ChainID(ctx context.Context) (uint64, error)

	// BlockNumber returns the current head block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// Call executes msg against the given block tag ("latest" when empty) and
	// returns the raw return data.
	Call(ctx context.Context, msg CallMsg, block string) ([]byte, error)

	// EstimateGas simulates msg and returns the gas it would use. A revert
	// surfaces as an *RPCError.
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)
}

// CallMsg is a contract call. From and Value are optional.
type CallMsg struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}
