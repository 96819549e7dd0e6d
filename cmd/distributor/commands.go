package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/AIAleph/rodeo_rewards/internal/actions"
	"github.com/AIAleph/rodeo_rewards/internal/config"
	"github.com/AIAleph/rodeo_rewards/internal/contracts"
	"github.com/AIAleph/rodeo_rewards/internal/distribution"
	"github.com/AIAleph/rodeo_rewards/internal/logging"
	"github.com/AIAleph/rodeo_rewards/internal/units"
)

func rootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "distributor",
		Short:         "Build and inspect Merkle reward distributions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(buildCmd(cfg))
	root.AddCommand(proofCmd())
	root.AddCommand(verifyCmd())
	root.AddCommand(claimCmd(cfg))
	root.AddCommand(statusCmd(cfg))
	root.AddCommand(balanceCmd(cfg))
	return root
}

func buildCmd(cfg config.Config) *cobra.Command {
	var (
		input  string
		week   string
		outDir string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "build --input FILE --week W",
		Short: "Build a distribution record from a recipient,amount CSV.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				if err := distribution.ValidateWeek(week); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"input":   input,
					"week":    week,
					"out_dir": outDir,
					"path":    distribution.Path(outDir, week),
				})
			}
			res, err := distribution.Generate(distribution.Options{Input: input, Week: week, OutDir: outDir})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"week":    res.Record.Week,
				"root":    res.Record.Root.Hex(),
				"entries": len(res.Record.Users),
				"total":   res.Total,
				"path":    res.Path,
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "CSV of recipient,amount rows [required]")
	cmd.Flags().StringVar(&week, "week", "", "Distribution week identifier [required]")
	cmd.Flags().StringVar(&outDir, "out-dir", cfg.DistributionDir, "Output directory (DISTRIBUTION_DIR)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print plan and exit")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

func proofCmd() *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "proof --record FILE ADDRESS",
		Short: "Print the claim data of one recipient.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := distribution.Load(record)
			if err != nil {
				return err
			}
			user, err := rec.Find(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"week":      rec.Week,
				"root":      rec.Root,
				"recipient": user.Recipient,
				"amount":    user.Amount,
				"proof":     user.Proof,
			})
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "Distribution record JSON [required]")
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

func verifyCmd() *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "verify --record FILE",
		Short: "Check every proof of a record against its root.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := distribution.Load(record)
			if err != nil {
				return err
			}
			if err := rec.Verify(); err != nil {
				return err
			}
			total, err := rec.Total()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"week":    rec.Week,
				"root":    rec.Root,
				"entries": len(rec.Users),
				"total":   total.String(),
				"tokens":  units.FormatUnits(total, distribution.TokenDecimals),
				"valid":   true,
			})
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "Distribution record JSON [required]")
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

func claimCmd(cfg config.Config) *cobra.Command {
	var (
		record      string
		distributor string
		simulate    bool
	)
	cmd := &cobra.Command{
		Use:   "claim --record FILE --distributor ADDR ADDRESS",
		Short: "Encode (and optionally simulate) the claim call for a recipient.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := distribution.ParseAddress(distributor)
			if err != nil {
				return fmt.Errorf("--distributor: %w", err)
			}
			rec, err := distribution.Load(record)
			if err != nil {
				return err
			}
			user, err := rec.Find(args[0])
			if err != nil {
				return err
			}
			calls, err := actions.RewardsClaim(to, rec.Week, user)
			if err != nil {
				return err
			}
			data, err := calls[0].Encode()
			if err != nil {
				return err
			}
			network, err := config.LookupNetwork(cfg.Chain.Network)
			if err != nil {
				return err
			}
			out := map[string]any{
				"chain_id": network.ChainID,
				"from":     user.Recipient,
				"to":       to.Hex(),
				"data":     hexutil.Encode(data),
				"value":    "0",
			}
			if simulate {
				gas, err := simulateClaim(cmd.Context(), cfg, to, rec.Week, user, calls)
				if err != nil {
					return err
				}
				out["gas"] = gas
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "Distribution record JSON [required]")
	cmd.Flags().StringVar(&distributor, "distributor", "", "Reward distributor contract address [required]")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Check claim status and estimate gas against RPC_URL before signing")
	_ = cmd.MarkFlagRequired("record")
	_ = cmd.MarkFlagRequired("distributor")
	return cmd
}

func simulateClaim(parent context.Context, cfg config.Config, distributor common.Address, week string, user distribution.User, calls []actions.Call) (uint64, error) {
	ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
	defer cancel()
	p, err := dial(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("provider error: %w", err)
	}
	e, err := user.Entry()
	if err != nil {
		return 0, err
	}
	claimed, err := actions.ClaimedWeeks(ctx, contracts.NewReader(p), distributor, e.Recipient, []string{week})
	if err != nil {
		return 0, err
	}
	if _, err := actions.Unclaimed(e.Amount, claimed[0]); err != nil {
		return 0, fmt.Errorf("week %s: %w", week, err)
	}
	gas, err := actions.Simulate(ctx, p, e.Recipient, calls)
	if err != nil {
		return 0, fmt.Errorf("simulate: %w", err)
	}
	logging.Logger().Info("claim_simulated",
		"component", "cmd.distributor",
		"recipient", e.Recipient.Hex(),
		"week", week,
		"network", cfg.Chain.Network,
		"gas", gas[0],
	)
	return gas[0], nil
}

func statusCmd(cfg config.Config) *cobra.Command {
	var (
		records     []string
		distributor string
	)
	cmd := &cobra.Command{
		Use:   "status --distributor ADDR --record FILE [--record FILE...] ADDRESS",
		Short: "Show claimed and claimable amounts per published week.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := distribution.ParseAddress(distributor)
			if err != nil {
				return fmt.Errorf("--distributor: %w", err)
			}
			owner, err := distribution.ParseAddress(args[0])
			if err != nil {
				return err
			}
			weeks := make([]string, len(records))
			claimable := make([]*big.Int, len(records))
			for i, path := range records {
				rec, err := distribution.Load(path)
				if err != nil {
					return err
				}
				weeks[i] = rec.Week
				claimable[i] = new(big.Int)
				user, err := rec.Find(owner.Hex())
				if errors.Is(err, distribution.ErrUnknownRecipient) {
					continue
				}
				if err != nil {
					return err
				}
				e, err := user.Entry()
				if err != nil {
					return err
				}
				claimable[i] = e.Amount
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			p, err := dial(ctx, cfg)
			if err != nil {
				return fmt.Errorf("provider error: %w", err)
			}
			claimed, err := actions.ClaimedWeeks(ctx, contracts.NewReader(p), to, owner, weeks)
			if err != nil {
				return err
			}

			rows := make([]map[string]any, len(weeks))
			for i, w := range weeks {
				pending := new(big.Int)
				if left, err := actions.Unclaimed(claimable[i], claimed[i]); err == nil {
					pending = left
				}
				rows[i] = map[string]any{
					"week":      w,
					"claimable": claimable[i].String(),
					"claimed":   claimed[i].String(),
					"pending":   pending.String(),
				}
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"owner":       owner.Hex(),
				"distributor": to.Hex(),
				"weeks":       rows,
			})
		},
	}
	cmd.Flags().StringArrayVar(&records, "record", nil, "Distribution record JSON, repeatable [required]")
	cmd.Flags().StringVar(&distributor, "distributor", "", "Reward distributor contract address [required]")
	_ = cmd.MarkFlagRequired("record")
	_ = cmd.MarkFlagRequired("distributor")
	return cmd
}

func balanceCmd(cfg config.Config) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "balance --token ADDR ADDRESS",
		Short: "Read an ERC-20 balance, e.g. to fund a distributor.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenAddr, err := distribution.ParseAddress(token)
			if err != nil {
				return fmt.Errorf("--token: %w", err)
			}
			owner, err := distribution.ParseAddress(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			p, err := dial(ctx, cfg)
			if err != nil {
				return fmt.Errorf("provider error: %w", err)
			}
			r := contracts.NewReader(p)
			bal, err := r.BalanceOf(ctx, tokenAddr, owner)
			if err != nil {
				return err
			}
			dec, err := r.Decimals(ctx, tokenAddr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"token":    tokenAddr.Hex(),
				"owner":    owner.Hex(),
				"balance":  bal.String(),
				"decimals": dec,
				"amount":   units.FormatUnits(bal, int(dec)),
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ERC-20 token address [required]")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
