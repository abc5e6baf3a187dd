package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vito/lineup/pkg/lineup"
	"github.com/vito/lineup/pkg/syntax"
)

const sourceExt = ".lu"

type fmtOptions struct {
	write     bool
	list      bool
	check     bool
	watch     bool
	maxWidth  int
	tabSpaces int
}

var changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

func fmtCmd(root *Config) *cobra.Command {
	var opts fmtOptions

	cmd := &cobra.Command{
		Use:   "fmt [flags] [path...]",
		Short: "Format .lu source files",
		Long: `Format .lu source files within the configured width.

By default, fmt prints the formatted source to stdout.
Use -w to write the result back to the source file.
Use -l to list files that would be changed.
Use --check to fail when any file would be changed.
Use --watch to keep formatting files in place as they change.`,
		Example: `  # Format a file and print to stdout
  lineup fmt main.lu

  # Format all .lu files under a directory in place
  lineup fmt -w ./src

  # Format for a narrower screen
  lineup fmt --max-width 80 main.lu

  # Reformat sources whenever they are saved
  lineup fmt --watch ./src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			cfg, err = opts.apply(cfg)
			if err != nil {
				return err
			}
			if opts.watch {
				if opts.check || opts.list {
					return fmt.Errorf("--watch cannot be combined with --check or --list")
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				return runWatch(ctx, cmd.OutOrStdout(), cfg, args, defaultDebounce)
			}
			return runFmt(cmd.Context(), cmd.OutOrStdout(), cfg, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "Write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "List files that would be formatted")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Exit with an error if any file would be formatted")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep formatting files in place as they change")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 0, "Override max_width")
	cmd.Flags().IntVar(&opts.tabSpaces, "tab-spaces", 0, "Override tab_spaces")

	return cmd
}

// apply returns a copy of cfg with the flag overrides.
func (o fmtOptions) apply(cfg *lineup.Config) (*lineup.Config, error) {
	c := *cfg
	if o.maxWidth != 0 {
		c.MaxWidth = o.maxWidth
	}
	if o.tabSpaces != 0 {
		c.TabSpaces = o.tabSpaces
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

type fmtResult struct {
	path        string
	text        string
	changed     bool
	unformatted []syntax.Unformatted
}

func runFmt(ctx context.Context, out io.Writer, cfg *lineup.Config, opts fmtOptions, paths []string) error {
	files, err := collectFiles(paths)
	if err != nil {
		return err
	}

	results := make([]fmtResult, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		eg.Go(func() error {
			res, err := formatFile(ctx, file, cfg, opts.write)
			if err != nil {
				return fmt.Errorf("formatting %s: %w", file, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	// Report in argument order.
	changed := 0
	for _, res := range results {
		for _, u := range res.unformatted {
			slog.Warn("could not be reformatted", "path", res.path, "line", u.Line, "reason", u.Reason)
		}
		if res.changed {
			changed++
		}

		switch {
		case opts.check, opts.list:
			if res.changed {
				if _, err := lipgloss.Fprintln(out, changedStyle.Render(res.path)); err != nil {
					return err
				}
			}
		case opts.write:
		default:
			if _, err := fmt.Fprint(out, res.text); err != nil {
				return err
			}
		}
	}

	if opts.check && changed > 0 {
		return fmt.Errorf("%d of %d files need formatting", changed, len(results))
	}
	return nil
}

// collectFiles expands directories to the source files beneath them.
// Files named explicitly are taken whatever their extension.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != path && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(p) == sourceExt {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", path, err)
		}
	}
	return files, nil
}

func formatFile(ctx context.Context, path string, cfg *lineup.Config, write bool) (fmtResult, error) {
	if err := ctx.Err(); err != nil {
		return fmtResult{}, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmtResult{}, err
	}

	res, err := syntax.FormatFile(source, cfg)
	if err != nil {
		return fmtResult{}, err
	}

	result := fmtResult{
		path:        path,
		text:        res.Text,
		changed:     string(source) != res.Text,
		unformatted: res.Unformatted,
	}
	slog.DebugContext(ctx, "formatted", "path", path, "changed", result.changed)

	if write && result.changed {
		if err := os.WriteFile(path, []byte(res.Text), 0644); err != nil {
			return fmtResult{}, err
		}
	}
	return result, nil
}
