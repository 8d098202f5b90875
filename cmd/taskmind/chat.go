package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"taskmind/internal/assistant"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// chatCmd starts the interactive loop explicitly; same as running taskmind
// with no arguments
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// statsCmd prints the basic statistics view
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Println(assistant.New(store, userName).Statistics(cmd.Context()))
		return nil
	},
}

// runCmd processes a single command line without entering the chat loop
var runCmd = &cobra.Command{
	Use:   "run [command]",
	Short: "Execute a single command and exit",
	Long: `Processes one command through the assistant and prints the response.

Accepts the same input as the chat interface, natural language or the
traditional command format.

Examples:
  taskmind run "add a task called 'buy groceries' with high priority"
  taskmind run "list all tasks"
  taskmind run analytics`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		a := assistant.New(store, userName)
		fmt.Println(a.Process(cmd.Context(), joinArgs(args)))
		return nil
	},
}

// runChat is the interactive chat loop, the default when taskmind is run
// without a subcommand.
func runChat() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	a := assistant.New(store, userName)
	ctx := context.Background()

	fmt.Println(bannerStyle.Render("taskmind - your AI task assistant"))
	fmt.Println(hintStyle.Render(fmt.Sprintf("User: %s. Type 'help' for commands, 'quit' to exit.", userName)))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		// The shell owns user switching; everything else goes to the assistant.
		if name, ok := strings.CutPrefix(input, "switch "); ok {
			a.SwitchUser(strings.TrimSpace(name))
			fmt.Printf("Switched to user: %s\n\n", a.UserID())
			continue
		}

		fmt.Println(a.Process(ctx, input))
		fmt.Println()

		lowered := strings.ToLower(input)
		if lowered == "quit" || lowered == "exit" {
			break
		}
	}
	return scanner.Err()
}
