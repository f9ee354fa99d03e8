package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/pubconcept/internal/application/allowset"
	"github.com/turtacn/pubconcept/internal/application/relevance"
	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/internal/infrastructure/storage/file"
)

// ReplaceOptions holds the flags of the replace command.
type ReplaceOptions struct {
	Input        string
	Output       string
	AllowSet     string
	RelevanceDir string
	Strict       bool
	Expected     int
	Sinks        []string
	Quiet        bool
}

// NewReplaceCmd creates the replace command.
func NewReplaceCmd() *cobra.Command {
	opts := &ReplaceOptions{}

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace concept mentions in an offset file",
		Long: "Read an offset file (local path, - for stdin, .gz, or s3://bucket/key) and write\n" +
			"pmid<TAB>text per article, or pmid<TAB>year<TAB>text with --relevance-dir.",
		Example: "  pubconcept replace -i bioconcepts2pubtator_offsets.gz -o replaced.tsv --allow-set allow.tsv\n" +
			"  zcat batch.txt.gz | pubconcept replace -i - --expected 100 --strict",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplace(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "offset file to read (required)")
	f.StringVarP(&opts.Output, "output", "o", file.StdinURI, "output file, - for stdout; .gz compresses")
	f.StringVar(&opts.AllowSet, "allow-set", "", "allow-set file of category<TAB>id lines (default: pipeline.allow_set_path)")
	f.StringVar(&opts.RelevanceDir, "relevance-dir", "", "directory of pmid<TAB>year TSV files (default: pipeline.relevance_dir)")
	f.BoolVar(&opts.Strict, "strict", false, "treat malformed records as fatal")
	f.IntVar(&opts.Expected, "expected", -1, "expected record count; a mismatch is fatal")
	f.StringSliceVar(&opts.Sinks, "sink", nil, "extra sinks: postgres, kafka, minio (default: pipeline.sinks)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not print the run summary")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runReplace(cmd *cobra.Command, opts *ReplaceOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := cliCtx.Logger

	cfg := *cliCtx.Config
	flags := cmd.Flags()
	if flags.Changed("allow-set") {
		cfg.Pipeline.AllowSetPath = opts.AllowSet
	}
	if flags.Changed("relevance-dir") {
		cfg.Pipeline.RelevanceDir = opts.RelevanceDir
	}
	if flags.Changed("strict") {
		cfg.Pipeline.Strict = opts.Strict
	}
	if flags.Changed("sink") {
		cfg.Pipeline.Sinks = opts.Sinks
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	req := replacement.RunRequest{Input: opts.Input, Strict: cfg.Pipeline.Strict}
	if opts.Expected >= 0 {
		expected := opts.Expected
		req.ExpectedCount = &expected
	}

	if cfg.Pipeline.AllowSetPath != "" {
		set, err := allowset.LoadFile(cfg.Pipeline.AllowSetPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded allow-set",
			logging.String("path", cfg.Pipeline.AllowSetPath),
			logging.Int("pairs", set.Len()))
		req.AllowSet = set
	} else {
		logger.Warn("No allow-set configured; every qualifying annotation is replaced")
	}

	if cfg.Pipeline.RelevanceDir != "" {
		idx, err := relevance.LoadDir(ctx, cfg.Pipeline.RelevanceDir, logger.Named("relevance"))
		if err != nil {
			return err
		}
		req.Relevance = idx
	}

	metrics := prometheus.NewNopPipelineMetrics()
	infra, err := OpenInfrastructure(&cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer infra.Close()

	var out *file.TSVSink
	if opts.Output == file.StdinURI {
		out = file.NewStreamSink(cmd.OutOrStdout())
	} else if out, err = file.CreateTSVSink(opts.Output); err != nil {
		return err
	}
	sink := replacement.NewMultiSink(metrics, append([]replacement.Sink{out}, infra.Sinks(opts.Input)...)...)
	req.Sink = sink

	svc := replacement.NewService(infra.Source(),
		replacement.WithLogger(logger.Named("replace")),
		replacement.WithMetrics(metrics),
	)
	summary, runErr := svc.Run(ctx, req)
	closeErr := sink.Close()

	if summary != nil && !opts.Quiet {
		writeSummary(cmd.ErrOrStderr(), summary)
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

//Personal.AI order the ending
