package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spigell/jobmatch/internal/interview"
)

var questionsCmd = &cobra.Command{
	Use:   "questions SKILL...",
	Short: "Print interview preparation questions for the given skills",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printQuestions(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}

func printQuestions(out io.Writer, skills []string) {
	for idx, question := range interview.Questions(skills) {
		fmt.Fprintf(out, "%d. [%s] %s\n", idx+1, skills[idx], question)
	}
}
