package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RishiKendai/overlap/internal/plagiarism"
)

var shinglesCmd = &cobra.Command{
	Use:   "shingles <file>",
	Short: "Print the tokens and shingles of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		size, _ := cmd.Flags().GetInt("shingle-size")
		minLen, _ := cmd.Flags().GetInt("min-token-length")

		tokens := plagiarism.NormalizeWith(string(data), minLen)
		set := plagiarism.Shingle(tokens, size)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tokens (%d):\n", len(tokens))
		for _, t := range tokens {
			fmt.Fprintf(out, "  %s\n", t)
		}
		fmt.Fprintf(out, "shingles (%d):\n", len(set))
		for _, s := range set.Sorted() {
			fmt.Fprintf(out, "  %s\n", s)
		}
		return nil
	},
}

func init() {
	shinglesCmd.Flags().Int("shingle-size", plagiarism.DefaultShingleSize, "tokens per shingle")
	shinglesCmd.Flags().Int("min-token-length", plagiarism.DefaultMinTokenLength, "drop tokens with this many characters or fewer")

	rootCmd.AddCommand(shinglesCmd)
}
