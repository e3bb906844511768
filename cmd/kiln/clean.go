package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toyz/kiln/internal/cli"
)

func newCleanCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [dirs...]",
		Short: "Remove generated *_kiln.go files",
		Long: `Clean removes files carrying the kiln header. A directory ending in /...
is cleaned recursively; vendor, testdata and hidden directories are
skipped.`,
		Example: `  kiln clean ./...
  kiln clean --dry-run ./internal/screens`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd, args)
			if err != nil {
				return opts.fail(cmd, err)
			}
			diagnostics := opts.diagnostics(cfg.Level())
			diagnostics.Header("clean")

			dirs := make([]string, len(cfg.Patterns))
			for i, p := range cfg.Patterns {
				dirs[i] = filepath.Join(cfg.Dir, p)
			}
			removed, err := cli.NewCleaner(cfg.DryRun).Clean(dirs)
			verb := "removed"
			if cfg.DryRun {
				verb = "would remove"
			}
			for _, path := range removed {
				diagnostics.List("%s %s", verb, path)
			}
			if err != nil {
				return opts.fail(cmd, err)
			}
			diagnostics.Success("%d generated files %s", len(removed), verb)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "list the files that would be removed")
	return cmd
}
