package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docstitch/config"
	"docstitch/filter"
	"docstitch/ident"
	"docstitch/layout"
	"docstitch/pkg/logger"
	"docstitch/segment"
	"docstitch/stitch"
)

var version = "1.0.0"

func main() {
	cfg := config.Load()

	if err := logger.Init(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: "stderr",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "docstitch",
		Short: "Stitch, segment and filter document layout results",
		Long:  `docstitch CLI - assemble batched layout-analysis results into one document, split it into token-bounded segments and filter element fields for downstream consumers.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newStitchCmd())
	rootCmd.AddCommand(newSegmentCmd(cfg))
	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newSegmentFilteredCmd(cfg))
	rootCmd.AddCommand(newAddIDsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docstitch v%s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStitchCmd() *cobra.Command {
	var (
		output   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "stitch <batch.json> [batch.json...]",
		Short: "Stitch batch layout results into one document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches := make([]*layout.Document, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(path)
				if err != nil {
					return err
				}
				batches = append(batches, doc)
			}

			assembler := stitch.NewAssembler()
			merged, err := assembler.AssembleSequence(batches, validate)
			if err != nil {
				return err
			}

			return writeJSON(output, merged)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&validate, "validate-sequence", true, "require consecutive page batches")
	return cmd
}

func newSegmentCmd(cfg *config.Config) *cobra.Command {
	var (
		output     string
		sourceFile string
		minTokens  int
		maxTokens  int
	)

	cmd := &cobra.Command{
		Use:   "segment <document.json>",
		Short: "Split a stitched document into token-bounded segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			tokenizer, err := segment.NewTokenizer()
			if err != nil {
				return err
			}

			if sourceFile == "" {
				sourceFile = filepath.Base(args[0])
			}

			segments, err := segment.NewSegmenter(tokenizer).Segment(doc, sourceFile, minTokens, maxTokens)
			if err != nil {
				return err
			}

			return writeJSON(output, segments)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&sourceFile, "source-file", "", "source file name recorded on segments (default input file name)")
	cmd.Flags().IntVar(&minTokens, "min-tokens", cfg.Segmenter.MinTokens, "minimum tokens per segment")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", cfg.Segmenter.MaxTokens, "maximum tokens per segment")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var (
		output string
		preset string
		fields []string
		noIDs  bool
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "filter <document.json>",
		Short: "Filter element fields for downstream consumers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			fcfg := filter.Config{
				Preset:     preset,
				Fields:     fields,
				IncludeIDs: !noIDs,
			}

			elements, mappings, stats, err := filter.New().Apply(doc, fcfg)
			if err != nil {
				return err
			}

			result := map[string]any{
				"elements":         elements,
				"element_mappings": mappings,
				"filter_metrics":   stats,
			}
			if pretty {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				return writeOutput(output, data)
			}
			return writeJSON(output, result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&preset, "preset", filter.DefaultConfig().Preset, "filter preset ("+strings.Join(filter.Presets(), ", ")+")")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "explicit field allow-list, overrides the preset")
	cmd.Flags().BoolVar(&noIDs, "no-ids", false, "omit element ids from filtered output")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

func newSegmentFilteredCmd(cfg *config.Config) *cobra.Command {
	var (
		output     string
		sourceFile string
		preset     string
		fields     []string
		minTokens  int
		maxTokens  int
	)

	cmd := &cobra.Command{
		Use:   "segment-filtered <document.json>",
		Short: "Filter then segment a stitched document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			tokenizer, err := segment.NewTokenizer()
			if err != nil {
				return err
			}

			if sourceFile == "" {
				sourceFile = filepath.Base(args[0])
			}

			fcfg := filter.DefaultConfig()
			if preset != "" {
				fcfg.Preset = preset
			}
			if len(fields) > 0 {
				fcfg.Fields = fields
			}

			segmenter := filter.NewSegmenter(filter.New(), tokenizer)
			segments, mappings, stats, err := segmenter.Segment(doc, fcfg, sourceFile, minTokens, maxTokens)
			if err != nil {
				return err
			}

			return writeJSON(output, map[string]any{
				"segments":         segments,
				"element_mappings": mappings,
				"filter_metrics":   stats,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&sourceFile, "source-file", "", "source file name recorded on segments (default input file name)")
	cmd.Flags().StringVar(&preset, "preset", "", "filter preset")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "explicit field allow-list, overrides the preset")
	cmd.Flags().IntVar(&minTokens, "min-tokens", cfg.Segmenter.MinTokens, "minimum tokens per segment")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", cfg.Segmenter.MaxTokens, "maximum tokens per segment")
	return cmd
}

func newAddIDsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "add-ids <document.json>",
		Short: "Assign stable identifiers to every element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			return writeJSON(output, ident.AddElementIDs(doc))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List filter presets and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range filter.Presets() {
				fields, _ := filter.PresetFields(name)
				fmt.Printf("%s: %s\n", name, strings.Join(fields, ", "))
			}
			return nil
		},
	}
}

func readDocument(path string) (*layout.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc layout.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &doc, nil
}

func writeJSON(output string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeOutput(output, data)
}

func writeOutput(output string, data []byte) error {
	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(output, data, 0644)
}
