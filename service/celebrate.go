package service

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/activebook/reportflow/internal/ui"
)

// Celebrate prints the success banner after a completed run. Purely
// cosmetic: it is fired without awaiting and must never block or
// propagate a failure into the state machine.
func Celebrate() {
	if !ui.ColorEnabled() {
		fmt.Fprintln(os.Stderr, "\nPost pack ready!")
		return
	}
	sparkle := color.New(color.FgHiYellow).Sprint("✦")
	msg := color.New(color.FgHiGreen, color.Bold).Sprint("Post pack ready!")
	fmt.Fprintf(os.Stderr, "\n%s %s %s\n", sparkle, msg, sparkle)
}
