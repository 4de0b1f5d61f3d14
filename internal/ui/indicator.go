// Package ui holds terminal presentation helpers shared by the
// service and cmd layers.
package ui

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/muesli/termenv"
)

// processingWords rotate on the spinner while the backend is working.
var processingWords = []string{
	"Drafting...",
	"Polishing...",
	"Condensing...",
	"Rephrasing...",
	"Sharpening...",
	"Headlining...",
	"Summarizing...",
	"Crunching numbers...",
	"Reading the tape...",
	"Checking tickers...",
}

func randomProcessingWord() string {
	return processingWords[rand.Intn(len(processingWords))]
}

// ColorEnabled reports whether the terminal supports colored output.
func ColorEnabled() bool {
	return termenv.ColorProfile() != termenv.Ascii
}

// Indicator is the singleton spinner shown during long operations.
// The logger stops it before writing so lines never overlap.
type Indicator struct {
	mu           sync.Mutex
	s            *spinner.Spinner
	rotating     bool
	lastRotation time.Time
	lastWord     string
}

var (
	globalIndicator *Indicator
	indicatorOnce   sync.Once
)

// GetIndicator returns the singleton indicator instance.
func GetIndicator() *Indicator {
	indicatorOnce.Do(func() {
		globalIndicator = &Indicator{
			rotating: true,
		}
		globalIndicator.setupSpinner()
	})
	return globalIndicator
}

func (i *Indicator) setupSpinner() {
	i.s = spinner.New(spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	i.s.Color("fgHiCyan", "bold")

	i.s.PreUpdate = func(s *spinner.Spinner) {
		i.mu.Lock()
		defer i.mu.Unlock()
		if i.rotating {
			// Change word every 2 seconds
			if time.Since(i.lastRotation) > 2000*time.Millisecond {
				newWord := randomProcessingWord()
				for newWord == i.lastWord && len(processingWords) > 1 {
					newWord = randomProcessingWord()
				}
				s.Suffix = fmt.Sprintf(" %s", newWord)
				i.lastWord = newWord
				i.lastRotation = time.Now()
			}
		}
	}
}

func (i *Indicator) IsActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.s != nil && i.s.Active()
}

func (i *Indicator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.s != nil && i.s.Active() {
		i.s.Stop()
	}
}

// Start begins the spinner with the given text; an empty text enables
// rotating processing words.
func (i *Indicator) Start(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if text == "" {
		i.rotating = true
		text = randomProcessingWord()
		i.lastWord = text
		i.lastRotation = time.Now()
	} else {
		i.rotating = false
	}

	// Always restart to ensure fresh state
	if i.s.Active() {
		i.s.Stop()
	}

	i.s.Lock()
	i.s.Suffix = fmt.Sprintf(" %s", text)
	i.s.Unlock()
	i.s.Start()
}
