package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
)

// readStdin checks if there's piped input and reads it
// This is a more robust way to check if stdin is being piped.
func readStdin() string {
	// Check if stdin has data (is being piped)
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		// Stdin is being piped
		reader := bufio.NewReader(os.Stdin)
		var buffer bytes.Buffer

		// Read all content from stdin
		_, err := io.Copy(&buffer, reader)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
			return ""
		}

		return buffer.String()
	}

	return ""
}

func hasStdinData() bool {
	// Check if stdin has data (is being piped)
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// GetHuhKeyMap returns a custom keymap for huh forms
// Specifically disables the Editor key binding for Text fields as it interferes with input
func GetHuhKeyMap() *huh.KeyMap {
	// 1. Start with the default keymap
	keyMap := huh.NewDefaultKeyMap()

	// 2. Remap the Text field keys
	// We swap 'enter' to be the submission key and 'alt+enter' for new lines
	keyMap.Text.Submit = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	keyMap.Text.NewLine.SetHelp("ctrl+j", "new line")

	// 3. Disable the Editor (Ctrl+E) keybinding
	keyMap.Text.Editor = key.NewBinding(key.WithDisabled())

	return keyMap
}
