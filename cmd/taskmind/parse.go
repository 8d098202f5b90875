package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskmind/internal/nlp"
)

// parseCmd shows how the interpreter reads an input without executing it
var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Show how a command would be interpreted",
	Long: `Runs the rule-based interpreter over the input and prints the detected
command category, confidence, and extracted entities without touching the
task store.

Example:
  taskmind parse "add a task called 'buy milk' with high priority due tomorrow"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		command := nlp.NewParser().Parse(joinArgs(args))

		fmt.Printf("Input:      %s\n", command.RawInput)
		fmt.Printf("Category:   %s\n", command.Category)
		fmt.Printf("Confidence: %.2f\n", command.Confidence)

		if command.Title != "" {
			fmt.Printf("Title:      %s\n", command.Title)
		}
		if command.Description != "" {
			fmt.Printf("Description: %s\n", command.Description)
		}
		if command.Query != "" {
			fmt.Printf("Query:      %s\n", command.Query)
		}
		if command.Priority != "" {
			fmt.Printf("Priority:   %s\n", command.Priority)
		}
		if command.Status != "" {
			fmt.Printf("Status:     %s\n", command.Status)
		}
		if len(command.Tags) > 0 {
			fmt.Printf("Tags:       %s\n", strings.Join(command.Tags, ", "))
		}
		if command.DueDate != "" {
			fmt.Printf("Due date:   %s\n", command.DueDate)
		}
		if command.HasTaskID {
			fmt.Printf("Task ref:   %d\n", command.TaskID)
		}
		if command.Field != "" {
			fmt.Printf("Update:     %s = %s\n", command.Field, command.Value)
		}

		fmt.Printf("\n%s\n", nlp.FormatResponse(command))
	},
}
