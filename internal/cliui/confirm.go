package cliui

import "github.com/charmbracelet/huh"

// Confirm prompts interactively via huh, matching the teacher's
// TUICallback.AskConfirmation (internal/tui/callback.go). Non-interactive
// sessions (piped stdout, --yes, CI) never reach this: callers gate it on
// IsInteractive() and an explicit --yes flag first.
func Confirm(title, message string) bool {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Description(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()
	if err != nil {
		return false
	}
	return confirm
}
