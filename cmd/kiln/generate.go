package main

import (
	"github.com/spf13/cobra"

	"github.com/toyz/kiln/internal/cli"
	"github.com/toyz/kiln/internal/utils"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [patterns...]",
		Short: "Generate modules for the packages matching patterns",
		Long: `Generate loads the packages matching patterns (default ./...) and writes
one *_kiln.go file per generated artifact. Nothing is written when any
declaration is rejected.`,
		Example: `  kiln generate
  kiln generate ./internal/...
  kiln generate --out gen --dry-run ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd, args)
			if err != nil {
				return opts.fail(cmd, err)
			}

			logger := utils.NewLogger(cfg.Level(), opts.errOut)
			defer func() { _ = logger.Sync() }()

			diagnostics := opts.diagnostics(cfg.Level())
			reporter := opts.reporter(cfg.Verbose)
			diagnostics.Header("generate")

			gen := cli.NewGenerator(cfg, diagnostics,
				cli.WithReporter(reporter),
				cli.WithZapLogger(logger))
			if err := gen.Run(cmd.Context()); err != nil {
				reporter.ReportError(err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "write generated files under this root instead of next to the sources")
	cmd.Flags().Bool("dry-run", false, "report the files that would be written without touching disk")
	return cmd
}
