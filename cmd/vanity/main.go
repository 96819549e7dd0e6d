package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AIAleph/rodeo_rewards/internal/vanity"
)

var (
	// version is set via -ldflags "-X main.version=..."
	version = "dev"
	// exit is aliased to os.Exit to allow overriding in tests.
	exit = os.Exit
	// search is swapped in tests.
	search = vanity.Search
)

func rootCmd() *cobra.Command {
	var (
		prefix      string
		workers     int
		maxAttempts uint64
		timeout     time.Duration
		mnemonic    bool
	)
	cmd := &cobra.Command{
		Use:           "vanity --prefix 0x0",
		Short:         "Generate a key whose address starts with a hex prefix.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res, err := search(ctx, vanity.Options{Prefix: prefix, Workers: workers, MaxAttempts: maxAttempts, Mnemonic: mnemonic})
			if err != nil {
				return err
			}
			out := map[string]any{
				"address":     res.Address.Hex(),
				"private_key": res.PrivateKey,
				"attempts":    res.Attempts,
			}
			if res.Mnemonic != "" {
				out["mnemonic"] = res.Mnemonic
				out["path"] = vanity.DefaultPath
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "0x0", "Hex address prefix to search for")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent key generators")
	cmd.Flags().Uint64Var(&maxAttempts, "max-attempts", 0, "Give up after this many keys (0 = unlimited)")
	cmd.Flags().BoolVar(&mnemonic, "mnemonic", true, "Search BIP39 wallets and print the phrase; false searches raw keys")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 = until interrupted)")
	return cmd
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exit(code)
}
