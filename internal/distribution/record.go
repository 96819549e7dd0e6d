package distribution

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AIAleph/rodeo_rewards/internal/merkle"
)

var (
	ErrEmptyDistribution = errors.New("distribution has no entries")
	ErrInvalidWeek       = errors.New("invalid week")
	ErrProofMismatch     = errors.New("proof does not reproduce root")
	ErrUnknownRecipient  = errors.New("recipient not in distribution")
)

// User is the published claim data for one recipient.
type User struct {
	Recipient string        `json:"recipient"`
	Amount    string        `json:"amount"`
	Proof     []common.Hash `json:"proof"`
}

// Entry parses the user back into a typed entry.
func (u User) Entry() (Entry, error) {
	addr, err := ParseAddress(u.Recipient)
	if err != nil {
		return Entry{}, err
	}
	amount, ok := new(big.Int).SetString(u.Amount, 10)
	if !ok || amount.Sign() < 0 || amount.BitLen() > 256 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAmount, u.Amount)
	}
	return Entry{Recipient: addr, Amount: amount}, nil
}

// Record is the artifact published for a week's claim root.
type Record struct {
	Week  string      `json:"week"`
	Root  common.Hash `json:"root"`
	Users []User      `json:"users"`
}

// ValidateWeek rejects identifiers that cannot be used as a file name.
func ValidateWeek(week string) error {
	if strings.TrimSpace(week) == "" || week == "." || week == ".." || strings.ContainsAny(week, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidWeek, week)
	}
	return nil
}

// Build hashes every entry, builds the tree and attaches a proof to each
// entry. Users keep the input order; duplicates are not merged.
func Build(week string, entries []Entry) (*Record, error) {
	if err := ValidateWeek(week); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDistribution
	}
	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaves[i] = e.Leaf()
	}
	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}
	rec := &Record{Week: week, Root: tree.Root(), Users: make([]User, len(entries))}
	for i, e := range entries {
		proof, err := tree.Proof(leaves[i])
		if err != nil {
			return nil, fmt.Errorf("proof for %s: %w", e.Recipient.Hex(), err)
		}
		rec.Users[i] = User{Recipient: e.Recipient.Hex(), Amount: e.Amount.String(), Proof: proof}
	}
	return rec, nil
}

// Find returns the first user entry for addr.
func (r *Record) Find(addr string) (User, error) {
	want, err := ParseAddress(addr)
	if err != nil {
		return User{}, err
	}
	for _, u := range r.Users {
		if got, err := ParseAddress(u.Recipient); err == nil && got == want {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: %s", ErrUnknownRecipient, want.Hex())
}

// Verify checks that every user's leaf and proof fold to the root.
func (r *Record) Verify() error {
	if len(r.Users) == 0 {
		return ErrEmptyDistribution
	}
	for i, u := range r.Users {
		e, err := u.Entry()
		if err != nil {
			return fmt.Errorf("user %d: %w", i, err)
		}
		if !merkle.Verify(u.Proof, e.Leaf(), r.Root) {
			return fmt.Errorf("user %d (%s): %w", i, u.Recipient, ErrProofMismatch)
		}
	}
	return nil
}

// Total sums the published amounts.
func (r *Record) Total() (*big.Int, error) {
	total := new(big.Int)
	for i, u := range r.Users {
		e, err := u.Entry()
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		total.Add(total, e.Amount)
	}
	return total, nil
}

// Marshal renders the record as indented JSON with a trailing newline.
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Path is where the record for week lives under dir.
func Path(dir, week string) string {
	return filepath.Join(dir, week+".json")
}

// Write stores the record atomically: the JSON goes to a temporary file in
// the target directory which is then renamed over path.
func Write(path string, r *Record) (err error) {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Load reads a published record.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &r, nil
}
