package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ruledxml/engine"
	"ruledxml/rules"
)

var (
	// Global flags
	verbose   bool
	rulesPath string

	// apply flags
	outputPath string

	// batch flags
	batchBase string
	outputDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ruledxml",
	Short: "Declarative XML to XML transformation driven by rulefiles",
	Long: `ruledxml converts XML documents into differently structured XML
documents by applying a set of declarative mapping rules.

Each rule names source paths to read, one destination path to write,
and a transform turning the read values into the written value. Rules
may repeat per matched element via foreach base pairs. The rule set is
loaded from a YAML rulefile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply [input.xml]",
	Short: "Apply a rulefile to one XML document",
	Long: `Reads the input document, applies every rule in the rulefile, and
writes the resulting document to --output (or stdout).

Example:
  ruledxml apply --rules mapping.yaml --output out.xml in.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var batchCmd = &cobra.Command{
	Use:   "batch [input.xml]",
	Short: "Apply a rulefile once per element matched by a base path",
	Long: `Enumerates the elements matching --base in the input document and
applies the rulefile to each match as an independent source document.
One output file per match is written into --output-dir, numbered in
document order.

Example:
  ruledxml batch --rules mapping.yaml --base /feed/entry --output-dir out/ feed.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runApply(cmd *cobra.Command, args []string) error {
	set, meta, err := loadRules()
	if err != nil {
		return err
	}

	src, err := engine.ReadDocumentFile(args[0])
	if err != nil {
		return err
	}

	dst, err := engine.Run(src, set, meta, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	if outputPath == "" {
		return engine.WriteDocument(dst, cmd.OutOrStdout(), meta.OutputEncoding)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	if err := engine.WriteDocument(dst, f, meta.OutputEncoding); err != nil {
		f.Close()
		return err
	}
	logger.Info("document written", zap.String("path", outputPath))
	return f.Close()
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchBase == "" {
		return fmt.Errorf("--base is required")
	}

	set, meta, err := loadRules()
	if err != nil {
		return err
	}

	src, err := engine.ReadDocumentFile(args[0])
	if err != nil {
		return err
	}

	outs, err := engine.RunBatch(src, set, meta, batchBase, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	stem := filepath.Base(args[0])
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	for i, doc := range outs {
		path := filepath.Join(outputDir, fmt.Sprintf("%s-%03d.xml", stem, i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := engine.WriteDocument(doc, f, meta.OutputEncoding); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	logger.Info("batch complete",
		zap.Int("documents", len(outs)),
		zap.String("dir", outputDir))
	return nil
}

func loadRules() (*rules.Set, rules.Meta, error) {
	if rulesPath == "" {
		return nil, rules.Meta{}, fmt.Errorf("--rules is required")
	}
	set, meta, err := rules.LoadFile(rulesPath, nil)
	if err != nil {
		return nil, rules.Meta{}, fmt.Errorf("load rulefile %s: %w", rulesPath, err)
	}
	logger.Debug("rulefile loaded",
		zap.String("path", rulesPath),
		zap.Int("rules", set.Len()))
	return set, meta, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "", "path to the YAML rulefile")

	applyCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")

	batchCmd.Flags().StringVar(&batchBase, "base", "", "path enumerating the per-document source elements")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "out", "directory for the numbered output documents")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
