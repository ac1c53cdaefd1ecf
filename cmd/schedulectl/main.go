package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-scheduler/internal/app"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/catalog"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "schedulectl",
		Short:        "Inspect the clinic calendar and resolve service lists",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(monthCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withStack(cmd *cobra.Command, fn func(ctx context.Context, stack *app.Stack) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	// Keep stdout for tables.
	cfg.Log.Level = "warn"
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	stack, err := app.Build(ctx, cfg, logger, metrics.New("schedulectl"))
	if err != nil {
		return err
	}
	defer stack.Close()
	return fn(ctx, stack)
}

func weekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the appointments placed on the week grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				svc := stack.Calendar()
				anchor := svc.Clock().Now()
				if date != "" {
					d, err := model.ParseDate(date, svc.Location())
					if err != nil {
						return fmt.Errorf("invalid --date: %w", err)
					}
					anchor = d
				}
				view, err := svc.Week(ctx, anchor)
				if err != nil {
					return err
				}
				return renderWeek(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any date in the week, YYYY-MM-DD (default today)")
	return cmd
}

func monthCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Print the month grid with per-day counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				svc := stack.Calendar()
				anchor := svc.Clock().Now()
				if month != "" {
					m, err := time.ParseInLocation("2006-01", month, svc.Location())
					if err != nil {
						return fmt.Errorf("invalid --month: %w", err)
					}
					anchor = m
				}
				view, err := svc.Month(ctx, anchor)
				if err != nil {
					return err
				}
				return renderMonth(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show, YYYY-MM (default this month)")
	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <encoded-services>",
		Short: "Expand a stored service list into line items with totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selections, err := catalog.ParseSelections(args[0])
			if err != nil {
				return err
			}
			return withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				services, err := stack.Catalog.ListServices(ctx)
				if err != nil {
					return err
				}
				items := stack.Resolver.Resolve(ctx, selections, services)
				return renderLineItems(cmd.OutOrStdout(), items)
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <staff-id>",
		Short: "Mint a bearer token for the scheduling API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			tokens := auth.NewJWTService(auth.Config{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer})
			token, err := tokens.GenerateAccessToken(args[0], name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
