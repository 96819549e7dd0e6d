package distribution

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"

	"github.com/AIAleph/rodeo_rewards/internal/logging"
	"github.com/AIAleph/rodeo_rewards/internal/merkle"
)

const (
	addrA = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1"
	addrB = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2"
	addrC = "0xcccccccccccccccccccccccccccccccccccccc03"
)

func mustEntries(t *testing.T, csv string) []Entry {
	t.Helper()
	entries, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return entries
}

func TestParseAddress(t *testing.T) {
	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
		"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed  ",
	}
	want := common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	for _, s := range valid {
		got, err := ParseAddress(s)
		if err != nil {
			t.Errorf("ParseAddress(%q): %v", s, err)
			continue
		}
		if strings.Contains(strings.ToLower(s), "5aaeb") && got != want {
			t.Errorf("ParseAddress(%q) = %s", s, got.Hex())
		}
	}
	if got, _ := ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"); got.Hex() != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("checksum form = %s", got.Hex())
	}

	invalid := []string{
		"",
		"0x",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00",
		"0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"vitalik.eth",
	}
	for _, s := range invalid {
		if _, err := ParseAddress(s); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) err = %v, want ErrInvalidAddress", s, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("100.7")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "100000000000000000000" {
		t.Fatalf("100.7 -> %s", got)
	}
	for _, bad := range []string{"", "-5", "1e3", "ten", "1.2.3"} {
		if _, err := ParseAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) err = %v", bad, err)
		}
	}
	huge := strings.Repeat("9", 80)
	if _, err := ParseAmount(huge); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("amount above uint256 should fail, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	entries := mustEntries(t, addrA+",100.7\r\n"+addrB+", 50.0\n\n   \n")
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Recipient != common.HexToAddress(addrA) || entries[0].Amount.String() != "100000000000000000000" {
		t.Fatalf("entry 0 = %s %s", entries[0].Recipient.Hex(), entries[0].Amount)
	}
	if entries[1].Amount.String() != "50000000000000000000" {
		t.Fatalf("entry 1 amount = %s", entries[1].Amount)
	}

	empty := mustEntries(t, "\n\n")
	if len(empty) != 0 {
		t.Fatalf("blank input produced %d entries", len(empty))
	}
}

func TestReadCSVFailsWholeBatch(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
		line string
	}{
		{"bad address", addrA + ",1\n0x1234,2\n", ErrInvalidAddress, "line 2"},
		{"bad amount", addrA + ",1\n" + addrB + ",lots\n", ErrInvalidAmount, "line 2"},
		{"negative amount", addrA + ",-1\n", ErrInvalidAmount, "line 1"},
		{"extra field", addrA + ",1,x\n", ErrInvalidRow, "line 1"},
		{"missing amount", addrA + "\n", ErrInvalidRow, "line 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := ReadCSV(strings.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !strings.Contains(err.Error(), tc.line) {
				t.Fatalf("error %q should name %s", err, tc.line)
			}
			if entries != nil {
				t.Fatalf("no entries expected on failure, got %d", len(entries))
			}
		})
	}
}

func TestEntryLeafPacking(t *testing.T) {
	e := Entry{Recipient: common.HexToAddress(addrA), Amount: big.NewInt(1)}
	packed := make([]byte, 52)
	copy(packed, common.HexToAddress(addrA).Bytes())
	packed[51] = 1
	if got, want := e.Leaf(), merkle.Keccak256(packed); got != want {
		t.Fatalf("leaf %s, want %s", got, want)
	}
}

func TestBuildTwoEntryExample(t *testing.T) {
	entries := mustEntries(t, addrA+",100.7\n"+addrB+",50.0\n")
	if got := Total(entries).String(); got != "150000000000000000000" {
		t.Fatalf("total = %s", got)
	}
	rec, err := Build("8", entries)
	if err != nil {
		t.Fatal(err)
	}
	leafA, leafB := entries[0].Leaf(), entries[1].Leaf()
	if want := merkle.HashPair(leafA, leafB); rec.Root != want {
		t.Fatalf("root %s, want %s", rec.Root, want)
	}
	want := []User{
		{Recipient: common.HexToAddress(addrA).Hex(), Amount: "100000000000000000000", Proof: []common.Hash{leafB}},
		{Recipient: common.HexToAddress(addrB).Hex(), Amount: "50000000000000000000", Proof: []common.Hash{leafA}},
	}
	if diff := cmp.Diff(want, rec.Users); diff != "" {
		t.Fatalf("users (-want +got):\n%s", diff)
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildEveryProofVerifies(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 13; i++ {
		addr := common.BigToAddress(big.NewInt(int64(i * 7919)))
		sb.WriteString(addr.Hex() + "," + big.NewInt(int64(i*3)).String() + ".25\n")
	}
	entries := mustEntries(t, sb.String())
	rec, err := Build("12", entries)
	if err != nil {
		t.Fatal(err)
	}
	for i, u := range rec.Users {
		if !merkle.Verify(u.Proof, entries[i].Leaf(), rec.Root) {
			t.Fatalf("user %d does not verify", i)
		}
	}
}

func TestBuildIsOrderIndependent(t *testing.T) {
	a, err := Build("1", mustEntries(t, addrA+",1\n"+addrB+",2\n"+addrC+",3\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build("1", mustEntries(t, addrC+",3\n"+addrA+",1\n"+addrB+",2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Root != b.Root {
		t.Fatalf("roots differ: %s vs %s", a.Root, b.Root)
	}
}

func TestBuildAmountChangeChangesRoot(t *testing.T) {
	a, _ := Build("1", mustEntries(t, addrA+",1\n"+addrB+",2\n"))
	b, _ := Build("1", mustEntries(t, addrA+",1\n"+addrB+",3\n"))
	if a.Root == b.Root {
		t.Fatal("changing an amount must change the root")
	}
}

func TestBuildExclusion(t *testing.T) {
	rec, _ := Build("1", mustEntries(t, addrA+",1\n"+addrB+",2\n"+addrC+",3\n"))
	forged := Entry{Recipient: common.HexToAddress(addrA), Amount: mustAmount(t, "1000")}
	for _, u := range rec.Users {
		if merkle.Verify(u.Proof, forged.Leaf(), rec.Root) {
			t.Fatalf("forged entry verified with proof of %s", u.Recipient)
		}
	}
	rec.Users[0].Amount = forged.Amount.String()
	if err := rec.Verify(); !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("tampered record: err = %v", err)
	}
}

func mustAmount(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ParseAmount(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestBuildKeepsDuplicates(t *testing.T) {
	rec, err := Build("1", mustEntries(t, addrA+",1\n"+addrA+",1\n"+addrA+",2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Users) != 3 {
		t.Fatalf("duplicates must not be merged, got %d users", len(rec.Users))
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildRejects(t *testing.T) {
	entries := mustEntries(t, addrA+",1\n")
	if _, err := Build("1", nil); !errors.Is(err, ErrEmptyDistribution) {
		t.Fatalf("empty: %v", err)
	}
	for _, week := range []string{"", " ", "..", "a/b", `a\b`} {
		if _, err := Build(week, entries); !errors.Is(err, ErrInvalidWeek) {
			t.Errorf("week %q: err = %v", week, err)
		}
	}
}

func TestRecordJSONShape(t *testing.T) {
	rec, _ := Build("8", mustEntries(t, addrA+",100.7\n"+addrB+",50.0\n"))
	data, err := rec.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("{\n  \"week\": \"8\",\n  \"root\": \"0x")) || !bytes.HasSuffix(data, []byte("}\n")) {
		t.Fatalf("unexpected layout:\n%s", data)
	}
	var raw struct {
		Week  string           `json:"week"`
		Root  string           `json:"root"`
		Users []map[string]any `json:"users"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw.Root) != 66 || len(raw.Users) != 2 {
		t.Fatalf("root=%q users=%d", raw.Root, len(raw.Users))
	}
	for _, k := range []string{"recipient", "amount", "proof"} {
		if _, ok := raw.Users[0][k]; !ok {
			t.Fatalf("user missing %q: %v", k, raw.Users[0])
		}
	}
	if raw.Users[0]["amount"] != "100000000000000000000" {
		t.Fatalf("amount should be a decimal string, got %v", raw.Users[0]["amount"])
	}
}

func TestFind(t *testing.T) {
	rec, _ := Build("1", mustEntries(t, addrA+",1\n"+addrC+",3\n"))
	u, err := rec.Find(strings.ToLower(addrA))
	if err != nil {
		t.Fatal(err)
	}
	if u.Amount != "1000000000000000000" {
		t.Fatalf("found %+v", u)
	}
	if _, err := rec.Find(addrB); !errors.Is(err, ErrUnknownRecipient) {
		t.Fatalf("missing: %v", err)
	}
	if _, err := rec.Find("nope"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("bad address: %v", err)
	}
	total, err := rec.Total()
	if err != nil || total.String() != "4000000000000000000" {
		t.Fatalf("total=%v err=%v", total, err)
	}
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	rec, _ := Build("8", mustEntries(t, addrA+",100.7\n"+addrB+",50.0\n"))
	path := Path(filepath.Join(dir, "stip"), "8")
	if err := Write(path, rec); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if err := got.Verify(); err != nil {
		t.Fatal(err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "stip", ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	logging.DiscardLogging()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(input, []byte(addrA+",100.7\n"+addrB+",50.0\n"+addrC+",3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	res1, err := Generate(Options{Input: input, Week: "8", OutDir: filepath.Join(dir, "one")})
	if err != nil {
		t.Fatal(err)
	}
	res2, err := Generate(Options{Input: input, Week: "8", OutDir: filepath.Join(dir, "two")})
	if err != nil {
		t.Fatal(err)
	}
	if res1.Total != "153000000000000000000" {
		t.Fatalf("total = %s", res1.Total)
	}
	a, _ := os.ReadFile(res1.Path)
	b, _ := os.ReadFile(res2.Path)
	if len(a) == 0 || !bytes.Equal(a, b) {
		t.Fatal("identical input must produce byte-identical output")
	}
	if filepath.Base(res1.Path) != "8.json" {
		t.Fatalf("path = %s", res1.Path)
	}
}

func TestGenerateWritesNothingOnFailure(t *testing.T) {
	logging.DiscardLogging()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(input, []byte(addrA+",1\nnot-an-address,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	if _, err := Generate(Options{Input: input, Week: "9", OutDir: out}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(Path(out, "9")); !os.IsNotExist(err) {
		t.Fatalf("record must not exist after a failed run: %v", err)
	}
	if _, err := Generate(Options{Input: filepath.Join(dir, "missing.csv"), Week: "9", OutDir: out}); err == nil {
		t.Fatal("missing input should fail")
	}
}
