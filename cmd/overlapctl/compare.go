package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/RishiKendai/overlap/internal/source"
)

var compareCmd = &cobra.Command{
	Use:   "compare <dir> | <file> <file>...",
	Short: "Compare local text files pairwise",
	Long: `Compare reads either every regular file of one directory or the files named
on the command line, one submission per file, and prints every pair ranked
by similarity. The owner of a file is its name without extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().Int("shingle-size", plagiarism.DefaultShingleSize, "tokens per shingle")
	compareCmd.Flags().Int("min-token-length", plagiarism.DefaultMinTokenLength, "drop tokens with this many characters or fewer")
	compareCmd.Flags().Float64("significant", plagiarism.DefaultTiers().Significant, "lower bound of the significant tier")
	compareCmd.Flags().Float64("moderate", plagiarism.DefaultTiers().Moderate, "lower bound of the moderate tier")
	compareCmd.Flags().String("focus", "", "path of the submission to describe in the report")
	compareCmd.Flags().Bool("json", false, "output the report as JSON")

	for _, name := range []string{"shingle-size", "min-token-length", "significant", "moderate"} {
		_ = viper.BindPFlag(name, compareCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	paths, err := collectPaths(args)
	if err != nil {
		return err
	}

	tiers := plagiarism.Tiers{
		Significant: viper.GetFloat64("significant"),
		Moderate:    viper.GetFloat64("moderate"),
	}
	if err := tiers.Validate(); err != nil {
		return err
	}

	opts := plagiarism.DefaultOptions()
	opts.ShingleSize = viper.GetInt("shingle-size")
	opts.MinTokenLength = viper.GetInt("min-token-length")
	if opts.ShingleSize <= 0 {
		return fmt.Errorf("--shingle-size must be greater than 0")
	}

	ctx := cmd.Context()
	docs := source.ReadFiles(ctx, paths)
	focus, _ := cmd.Flags().GetString("focus")
	if focus != "" {
		var found bool
		focus, found = matchFocus(focus, docs)
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: --focus %s does not name a compared file; selected submission section omitted\n", focus)
		}
	}

	report, _, err := plagiarism.BuildReport(ctx, plagiarism.NewComparator(opts, nil), docs, tiers, focus)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	return writeReport(cmd, report, asJSON)
}

// collectPaths expands a single directory argument into its files
func collectPaths(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return source.ListFiles(args[0])
		}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		paths = append(paths, filepath.Clean(arg))
	}
	return paths, nil
}

// matchFocus cleans the flag value the same way document ids were built
func matchFocus(focus string, docs []models.Document) (string, bool) {
	focus = filepath.Clean(focus)
	for _, doc := range docs {
		if doc.ID == focus {
			return focus, true
		}
	}
	return focus, false
}

func writeReport(cmd *cobra.Command, report *models.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprint(out, plagiarism.RenderText(report))
	return err
}
