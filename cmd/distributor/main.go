package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/AIAleph/rodeo_rewards/internal/config"
	"github.com/AIAleph/rodeo_rewards/internal/eth"
)

var (
	// version is set via -ldflags "-X main.version=..."
	version = "dev"
	// exit is aliased to os.Exit to allow overriding in tests.
	exit = os.Exit
	// dial is swapped in tests to avoid a live RPC endpoint.
	dial func(ctx context.Context, cfg config.Config) (eth.Provider, error) = eth.Dial
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "env error: %v\n", err)
		return 2
	}
	cmd := rootCmd(config.Load())
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
