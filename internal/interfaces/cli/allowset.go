package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/pubconcept/internal/application/allowset"
	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/internal/infrastructure/storage/file"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// AllowSetBuildOptions holds the flags of allowset build.
type AllowSetBuildOptions struct {
	Roots      []string
	Categories []string
	Out        string
}

// NewAllowSetCmd creates the allowset command group.
func NewAllowSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowset",
		Short: "Build and inspect concept allow-sets from the MeSH hierarchy",
	}
	cmd.AddCommand(newAllowSetBuildCmd(), newAllowSetCheckCmd(), newAllowSetInvalidateCmd(), newAllowSetLoadMeshCmd())
	return cmd
}

func newAllowSetBuildCmd() *cobra.Command {
	opts := &AllowSetBuildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Expand MeSH descriptors into an allow-set file",
		Example: "  pubconcept allowset build --root D012871 --root D009369 -o allow.tsv\n" +
			"  pubconcept allowset build --root D012871 --category Disease",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllowSetBuild(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&opts.Roots, "root", nil, "MeSH descriptor UI to expand (repeatable, required)")
	f.StringSliceVar(&opts.Categories, "category", nil, "annotation categories to emit (default: Disease,Chemical)")
	f.StringVarP(&opts.Out, "output", "o", file.StdinURI, "allow-set file to write, - for stdout")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func newAllowSetCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check UI",
		Short: "Look up a MeSH descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllowSetCheck(cmd, args[0])
		},
	}
}

func newAllowSetInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached MeSH lookups after a graph reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllowSetInvalidate(cmd)
		},
	}
}

func newAllowSetLoadMeshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-mesh FILE",
		Short: "Load MeSH descriptors and tree numbers into the graph",
		Long: "Read ui<TAB>label<TAB>tree-numbers lines (tree numbers separated by ';') from a\n" +
			"local path, - for stdin, .gz, or s3://bucket/key, and upsert them into Neo4j.\n" +
			"Cached MeSH lookups are dropped afterwards.",
		Example: "  pubconcept allowset load-mesh mesh_descriptors.tsv.gz",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllowSetLoadMesh(cmd, args[0])
		},
	}
}

// withInfrastructure opens the backing services without any sinks.
func withInfrastructure(cmd *cobra.Command, fn func(ctx context.Context, infra Infrastructure, logger logging.Logger) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	cfg.Pipeline.Sinks = nil

	infra, err := OpenInfrastructure(&cfg, cliCtx.Logger, prometheus.NewNopPipelineMetrics())
	if err != nil {
		return err
	}
	defer infra.Close()
	return fn(cmd.Context(), infra, cliCtx.Logger)
}

// withResolver hands the MeSH resolver to fn.
func withResolver(cmd *cobra.Command, fn func(ctx context.Context, r concept.DescendantResolver, logger logging.Logger) error) error {
	return withInfrastructure(cmd, func(ctx context.Context, infra Infrastructure, logger logging.Logger) error {
		resolver, err := infra.Resolver()
		if err != nil {
			return err
		}
		return fn(ctx, resolver, logger)
	})
}

func runAllowSetBuild(cmd *cobra.Command, opts *AllowSetBuildOptions) error {
	return withResolver(cmd, func(ctx context.Context, r concept.DescendantResolver, logger logging.Logger) error {
		set, err := allowset.NewBuilder(r, logger.Named("allowset")).FromDescriptors(ctx, opts.Roots, opts.Categories)
		if err != nil {
			return err
		}

		if opts.Out == file.StdinURI {
			if err := allowset.WriteTSV(cmd.OutOrStdout(), set); err != nil {
				return err
			}
		} else if err := allowset.WriteFile(opts.Out, set); err != nil {
			return err
		}
		PrintSuccess(cmd, fmt.Sprintf("%d pairs from %d root descriptor(s)", set.Len(), len(opts.Roots)))
		return nil
	})
}

func runAllowSetCheck(cmd *cobra.Command, ui string) error {
	return withResolver(cmd, func(ctx context.Context, r concept.DescendantResolver, logger logging.Logger) error {
		b := allowset.NewBuilder(r, logger.Named("allowset"))
		d, err := b.Check(ctx, ui)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeDescriptorNotFound) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s is not in the MeSH graph\n", color.YellowString("MISSING:"), ui)
			}
			return err
		}
		uis, err := b.Expand(ctx, []string{ui})
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("UI", "Label", "Descendants")
		table.Append([]string{d.UI, d.Label, strconv.Itoa(len(uis) - 1)})
		table.Render()
		return nil
	})
}

// invalidator is implemented by resolvers that cache.
type invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

func runAllowSetInvalidate(cmd *cobra.Command) error {
	return withResolver(cmd, func(ctx context.Context, r concept.DescendantResolver, logger logging.Logger) error {
		inv, ok := r.(invalidator)
		if !ok {
			return errors.New(errors.ErrCodeBadRequest, "descendant cache is not configured").WithDetail("set redis.addr")
		}
		n, err := inv.Invalidate(ctx)
		if err != nil {
			return err
		}
		logger.Info("Invalidated MeSH cache", logging.Int64("keys", n))
		PrintSuccess(cmd, fmt.Sprintf("removed %d cached entries", n))
		return nil
	})
}

func runAllowSetLoadMesh(cmd *cobra.Command, input string) error {
	return withInfrastructure(cmd, func(ctx context.Context, infra Infrastructure, logger logging.Logger) error {
		store, err := infra.DescriptorStore()
		if err != nil {
			return err
		}
		rc, err := infra.Source().Open(ctx, input)
		if err != nil {
			return err
		}
		defer rc.Close()

		stats, err := allowset.LoadMesh(ctx, rc, store, logger.Named("mesh"))
		if err != nil {
			return err
		}

		var dropped int64
		if r, err := infra.Resolver(); err == nil {
			if inv, ok := r.(invalidator); ok {
				if dropped, err = inv.Invalidate(ctx); err != nil {
					return err
				}
			}
		}
		PrintSuccess(cmd, fmt.Sprintf("loaded %d descriptors, skipped %d lines, dropped %d cached entries",
			stats.Loaded, stats.Skipped, dropped))
		return nil
	})
}

//Personal.AI order the ending
