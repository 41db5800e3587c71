package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pixienews/internal/app"
	"pixienews/internal/config"
	"pixienews/internal/domain/entity"
	"pixienews/internal/handler/http/auth"
	"pixienews/internal/observability/logging"
	"pixienews/internal/usecase/fetch"
)

// cli carries what every command needs. Tests replace newEngine.
type cli struct {
	out       io.Writer
	logger    *slog.Logger
	newEngine func(logger *slog.Logger) (*app.Engine, error)
	getenv    func(string) string
}

func defaultCLI() *cli {
	return &cli{
		out:    os.Stdout,
		logger: logging.NewTextLogger(os.Stderr),
		newEngine: func(logger *slog.Logger) (*app.Engine, error) {
			cfg, warnings := config.LoadEngineConfig(nil)
			for _, w := range warnings {
				logger.Warn("configuration fallback", slog.String("warning", w))
			}
			return app.NewEngine(cfg, app.Options{}, logger)
		},
		getenv: os.Getenv,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "pixienews",
		Short:        "AI/ML news aggregator",
		Long:         "PixieNews aggregates AI and machine learning news per region from RSS feeds and web pages.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "overall command timeout")
	root.SetOut(c.out)

	ctx := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	root.AddCommand(
		c.countriesCmd(),
		c.newsCmd(ctx),
		c.searchCmd(ctx),
		c.diagnoseCmd(ctx),
		c.validateConfigCmd(),
		c.tokenCmd(),
	)
	return root
}

type ctxFunc func(cmd *cobra.Command) (context.Context, context.CancelFunc)

func (c *cli) countriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List configured regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := c.newEngine(c.logger)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tSOURCES")
			for _, r := range eng.Query.Regions() {
				fmt.Fprintf(tw, "%s\t%s %s\t%d\n", r.Code, r.Flag, r.Name, len(r.Sources))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) newsCmd(ctx ctxFunc) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "news [CODE]",
		Short: "Show the latest news for a region (default GLOBAL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := entity.DefaultRegion
			if len(args) == 1 {
				code = args[0]
			}
			eng, err := c.newEngine(c.logger)
			if err != nil {
				return err
			}
			cctx, cancel := ctx(cmd)
			defer cancel()
			items, err := eng.Query.Latest(cctx, code, limit)
			if err != nil {
				return err
			}
			return c.printItems(items, asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "count", "n", 10, "number of items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) searchCmd(ctx ctxFunc) *cobra.Command {
	var (
		limit   int
		regions []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search cached news across regions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.newEngine(c.logger)
			if err != nil {
				return err
			}
			cctx, cancel := ctx(cmd)
			defer cancel()
			items, err := eng.Query.Search(cctx, strings.Join(args, " "), limit, regions...)
			if err != nil {
				return err
			}
			return c.printItems(items, asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "count", "n", 10, "maximum number of results")
	cmd.Flags().StringSliceVarP(&regions, "regions", "r", nil, "restrict to these region codes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) diagnoseCmd(ctx ctxFunc) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "diagnose [CODE]",
		Short: "Fetch every source of a region (or all regions) once and report the outcome",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := c.newEngine(c.logger)
			if err != nil {
				return err
			}
			codes := eng.Registry.SortedCodes()
			if len(args) == 1 {
				codes = []string{args[0]}
			}
			cctx, cancel := ctx(cmd)
			defer cancel()

			var all []fetch.SourceReport
			for _, code := range codes {
				reports, err := eng.Orchestrator.Diagnose(cctx, code)
				if err != nil {
					return err
				}
				all = append(all, reports...)
			}
			if asJSON {
				return writeJSON(c.out, all)
			}
			return printReports(c.out, all)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) validateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Validate engine, region and channel configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var errs []error
			cfg, warnings := config.LoadEngineConfig(nil)
			for _, w := range warnings {
				fmt.Fprintf(c.out, "warning: %s\n", w)
			}
			if err := cfg.Validate(); err != nil {
				errs = append(errs, err)
			}
			regions, err := config.LoadRegions(cfg.RegionsFile)
			if err != nil {
				errs = append(errs, err)
			} else {
				for _, r := range regions {
					if err := r.Validate(); err != nil {
						errs = append(errs, fmt.Errorf("region %s: %w", r.Code, err))
					}
				}
			}
			channels := config.LoadChannelsConfig()
			if channels.AdminEnabled() {
				if err := auth.ValidateSecret(channels.JWTSecret); err != nil {
					errs = append(errs, fmt.Errorf("JWT_SECRET: %w", err))
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "configuration OK: %d regions, cache ttl %v, telegram=%t whatsapp=%t bridge=%t admin=%t\n",
				len(regions), cfg.Cache.TTL,
				channels.TelegramEnabled(), channels.WhatsAppBusinessEnabled(),
				channels.BridgeEnabled(), channels.AdminEnabled())
			return nil
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for the admin API (uses JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := c.getenv("JWT_SECRET")
			if err := auth.ValidateSecret(secret); err != nil {
				return fmt.Errorf("JWT_SECRET: %w", err)
			}
			if _, ok := auth.RolePermissions[role]; !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := auth.IssueToken([]byte(secret), subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "admin or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func (c *cli) printItems(items []entity.NewsItem, asJSON bool) error {
	if asJSON {
		return writeJSON(c.out, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(c.out, "no news")
		return nil
	}
	for i, it := range items {
		date := "-"
		if it.PublishedAt != nil {
			date = it.PublishedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(c.out, "%d. %s\n   %s | %s | %s\n   %s\n", i+1, it.Title, it.Source, it.Region, date, it.URL)
	}
	return nil
}

func printReports(w io.Writer, reports []fetch.SourceReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tSOURCE\tSTATUS\tITEMS\tLATENCY\tLATEST")
	failed := 0
	for _, r := range reports {
		status := "OK"
		if !r.OK() {
			status = strings.ToUpper(r.Kind)
			failed++
		}
		latest := "-"
		if r.Latest != nil {
			latest = r.Latest.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.Region, r.Source, status, r.Items, r.Duration.Round(time.Millisecond), latest)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d sources, %d failing\n", len(reports), failed)
	for _, r := range reports {
		if !r.OK() {
			fmt.Fprintf(w, "  %s/%s: %s\n", r.Region, r.Source, r.Error)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
