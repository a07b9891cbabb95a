// Command checkbraces prints the running total of '{' minus '}' in a text file.
//
// Usage:
//
//	checkbraces [--encoding utf-8] [--lines] [file]
//
// The file defaults to BRACES_INPUT and the encoding to BRACES_ENCODING.
package main

import (
	"fmt"
	"os"

	"github.com/giygas/bpmn-tools/braces"
	"github.com/giygas/bpmn-tools/config"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/spf13/cobra"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		logging.Error("checkbraces failed", "error", err)
	}
	if cerr := logging.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		encodingName string
		showLines    bool
	)

	cmd := &cobra.Command{
		Use:   "checkbraces [file]",
		Short: "Count curly braces in a file",
		Long: `Adds one for every '{' and subtracts one for every '}' across the whole file
and prints the total. Zero means the braces balance.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("encoding") {
				cfg.BracesEncoding = encodingName
				if err := config.Validate(cfg); err != nil {
					return fmt.Errorf("configuration validation failed: %w", err)
				}
			}

			logging.InitLogger(logging.Options{
				Env:            cfg.Env,
				Level:          cfg.LogLevel,
				LogDir:         cfg.LogDir,
				RetentionWeeks: cfg.LogRetentionWeeks,
				MaxFileSize:    cfg.MaxLogFileSize,
			})

			path := cfg.BracesInput
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no input file: pass one as an argument or set BRACES_INPUT")
			}


			result, err := braces.CheckFile(path, cfg.BracesEncoding)
			if err != nil {
				return err
			}
			logging.Debug("Counted braces", "path", path, "total", result.Total, "unbalanced_lines", len(result.Lines))

			out := cmd.OutOrStdout()
			if showLines {
				for _, l := range result.Lines {
					fmt.Fprintf(out, "Line %d: count %d\n", l.Line, l.Count)
				}
			}
			fmt.Fprintf(out, "Total count: %d\n", result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&encodingName, "encoding", "", "input encoding: utf-8, iso-8859-1 or windows-1252 (env BRACES_ENCODING)")
	cmd.Flags().BoolVar(&showLines, "lines", false, "also print the running count after each line where it is not zero")

	return cmd
}
