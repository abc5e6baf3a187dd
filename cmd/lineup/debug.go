package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/vito/lineup/pkg/syntax"
)

func debugCmd(root *Config) *cobra.Command {
	var unformatted bool

	cmd := &cobra.Command{
		Use:   "debug [flags] path",
		Short: "Print the syntax tree of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			file, err := syntax.Parse(source)
			if err != nil {
				return fmt.Errorf("%s:%w", args[0], err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%# v\n", pretty.Formatter(file))

			if unformatted {
				cfg, err := loadConfig(*root)
				if err != nil {
					return err
				}
				res, err := syntax.NewFormatter(file, source, cfg).Format(file)
				if err != nil {
					return err
				}
				_, _ = pretty.Fprintf(out, "%# v\n", res.Unformatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unformatted, "unformatted", "u", false, "Also list the statements that cannot be reformatted")

	return cmd
}
