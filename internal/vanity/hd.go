package vanity

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultPath is the first Ethereum account of a BIP44 wallet.
const DefaultPath = "m/44'/60'/0'/0/0"

const hardened = 0x80000000

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	defaultPath = []uint32{44 + hardened, 60 + hardened, hardened, 0, 0}
	errBadChild = errors.New("derived key out of range")
)

// generateMnemonic returns a fresh 12-word English phrase. Swapped in tests.
var generateMnemonic = func() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// KeyFromMnemonic derives the DefaultPath key of a BIP39 phrase with an empty
// passphrase, the way browser wallets import it.
func KeyFromMnemonic(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	k, c, err := masterKey(seed)
	if err != nil {
		return nil, err
	}
	for _, i := range defaultPath {
		if k, c, err = childKey(k, c, i); err != nil {
			return nil, fmt.Errorf("derive %s: %w", DefaultPath, err)
		}
	}
	return crypto.ToECDSA(math.PaddedBigBytes(k, 32))
}

func masterKey(seed []byte) (*big.Int, []byte, error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	return split(mac.Sum(nil), new(big.Int))
}

// childKey is BIP32 CKDpriv.
func childKey(k *big.Int, chain []byte, index uint32) (*big.Int, []byte, error) {
	mac := hmac.New(sha512.New, chain)
	if index >= hardened {
		mac.Write([]byte{0})
		mac.Write(math.PaddedBigBytes(k, 32))
	} else {
		key, err := crypto.ToECDSA(math.PaddedBigBytes(k, 32))
		if err != nil {
			return nil, nil, err
		}
		mac.Write(crypto.CompressPubkey(&key.PublicKey))
	}
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	mac.Write(idx[:])
	return split(mac.Sum(nil), k)
}

// split turns an HMAC-SHA512 output into (IL + parent) mod n and the chain code.
func split(sum []byte, parent *big.Int) (*big.Int, []byte, error) {
	n := crypto.S256().Params().N
	il := new(big.Int).SetBytes(sum[:32])
	if il.Cmp(n) >= 0 {
		return nil, nil, errBadChild
	}
	k := il.Add(il, parent)
	k.Mod(k, n)
	if k.Sign() == 0 {
		return nil, nil, errBadChild
	}
	return k, sum[32:], nil
}
