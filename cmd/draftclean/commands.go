package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/spf13/cobra"
)

type cleanFlags struct {
	threshold float64
	minLength int
	legacy    bool
	patterns  string
	output    string
	report    bool
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "draftclean",
		Short:        "Remove duplicated sections from manuscript drafts",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newCleanCmd(logger), newSectionsCmd(), newScoreCmd())
	return root
}

func newCleanCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var f cleanFlags
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Print the manuscript with near-duplicate sections removed",
		Long: `Reads a manuscript from file, or stdin when file is omitted or "-",
strips leaked preambles, removes sections that repeat an earlier one and
prints the result. With --report the removal details go to stderr as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			cleaner, err := f.cleaner(cmd)
			if err != nil {
				return err
			}
			res := cleaner.Cleanup(text)
			log.Info("cleanup done",
				"sections", len(cleaner.Sections(text)),
				"removed", res.RemovedCount,
				"threshold", cleaner.Options().Threshold,
			)

			if err := writeOutput(cmd, f.output, res.CleanedText); err != nil {
				return err
			}
			if f.report {
				enc := json.NewEncoder(cmd.ErrOrStderr())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					RemovedCount int             `json:"removed_count"`
					Details      []dedup.Removal `json:"details"`
				}{res.RemovedCount, res.Details})
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&f.threshold, "threshold", dedup.DefaultThreshold, "similarity a section must exceed to be removed, in (0,1]")
	cmd.Flags().IntVar(&f.minLength, "min-length", dedup.DefaultMinLength, "sections shorter than this (normalized chars) are never compared")
	cmd.Flags().BoolVar(&f.legacy, "legacy", false, "use the older 0.70 threshold with no length floor")
	cmd.Flags().StringVar(&f.patterns, "patterns", "", "YAML file of contamination patterns")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the cleaned text here instead of stdout")
	cmd.Flags().BoolVar(&f.report, "report", false, "print the removal report to stderr as JSON")
	return cmd
}

// cleaner builds a Cleaner from the flags. Explicit --threshold and
// --min-length win over --legacy.
func (f cleanFlags) cleaner(cmd *cobra.Command) (*dedup.Cleaner, error) {
	var opts []dedup.Option
	if f.legacy {
		opts = append(opts, dedup.WithOptions(dedup.LegacyOptions()))
	}
	if !f.legacy || cmd.Flags().Changed("threshold") {
		if f.threshold <= 0 || f.threshold > 1 {
			return nil, fmt.Errorf("--threshold must be in (0, 1], got %g", f.threshold)
		}
		opts = append(opts, dedup.WithThreshold(f.threshold))
	}
	if !f.legacy || cmd.Flags().Changed("min-length") {
		if f.minLength < 0 {
			return nil, fmt.Errorf("--min-length must not be negative, got %d", f.minLength)
		}
		opts = append(opts, dedup.WithMinLength(f.minLength))
	}
	if f.patterns != "" {
		pats, err := dedup.LoadPatternsFile(f.patterns)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dedup.WithPatterns(pats...))
	}
	return dedup.New(opts...), nil
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [file]",
		Short: "List the sections duplicate detection compares",
		Long: `Pre-cleans the manuscript the way clean does, then lists its sections.
The index column matches removed_index in a clean --report.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, s := range dedup.New().Sections(text) {
				fmt.Fprintf(out, "%3d  [%d:%d]  %6d  %s\n", i, s.Start, s.End, utf8.RuneCountInString(s.Text), firstLine(s.Text))
			}
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <a> <b>",
		Short: "Print the similarity of two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", dedup.Similarity(string(a), string(b)))
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 60 {
		s = string([]rune(s)[:60]) + "..."
	}
	return s
}
