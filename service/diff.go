package service

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a colorized unified diff of two texts, used to compare
// the LinkedIn drafts of variant A and variant B.
func Diff(content1, content2, label1, label2 string, contextLines int) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(content1),
		B:        difflib.SplitLines(content2),
		FromFile: label1,
		ToFile:   label2,
		Context:  contextLines,
	}
	diffText, _ := difflib.GetUnifiedDiffString(diff)
	if diffText == "" {
		return "No differences.\n"
	}

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var out strings.Builder
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			out.WriteString(cyan(line) + "\n")
		case strings.HasPrefix(line, "@@"):
			out.WriteString(dim(line) + "\n")
		case strings.HasPrefix(line, "-"):
			out.WriteString(red(line) + "\n")
		case strings.HasPrefix(line, "+"):
			out.WriteString(green(line) + "\n")
		case line == "":
			continue
		default:
			out.WriteString(line + "\n")
		}
	}
	return out.String()
}
