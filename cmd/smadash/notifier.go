package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/sma-dash-client/internal/models"
)

// consoleNotifier prints session notifications the way the dashboard shows
// toasts, so scripted runs still surface outcome messages.
type consoleNotifier struct{}

func newConsoleNotifier() *consoleNotifier {
	return &consoleNotifier{}
}

func (n *consoleNotifier) Notify(note models.Notification) {
	marker := "•"
	if note.Variant == models.VariantDestructive {
		marker = "!"
	}
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", marker, note.Title, note.Description)
}
