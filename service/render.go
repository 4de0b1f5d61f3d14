package service

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/reflow/wordwrap"

	"github.com/activebook/reportflow/data"
)

const cardWidth = 76

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(cardWidth)

	cardTitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("12"))

	cardMetaStyle = lipgloss.NewStyle().Faint(true)
)

// RenderVariantCards renders the finalized surfaces of one variant as
// bordered terminal cards. Surfaces that never completed are skipped.
func RenderVariantCards(res VariantResult) string {
	var out strings.Builder

	if res.LinkedIn != nil {
		body := wordwrap.String(res.LinkedIn.Content, cardWidth-4)
		meta := fmt.Sprintf("%d characters", res.LinkedIn.CharacterCount)
		if len(res.LinkedIn.Hashtags) > 0 {
			meta += "  #" + strings.Join(res.LinkedIn.Hashtags, " #")
		}
		card := cardTitleStyle.Render("LinkedIn") + "\n\n" + body + "\n\n" + cardMetaStyle.Render(meta)
		out.WriteString(cardStyle.Render(card) + "\n")
	}

	if res.WhatsApp != nil {
		body := wordwrap.String(res.WhatsApp.FormattedMessage, cardWidth-4)
		card := cardTitleStyle.Render("WhatsApp") + "\n\n" + body
		out.WriteString(cardStyle.Render(card) + "\n")
	}

	if len(res.DetectedTickers) > 0 {
		card := cardTitleStyle.Render("Detected tickers") + "\n\n" + strings.Join(res.DetectedTickers, ", ")
		out.WriteString(cardStyle.Render(card) + "\n")
	}

	if res.PrimaryChart != nil {
		out.WriteString(RenderChartCard(res.PrimaryChart) + "\n")
	}

	return out.String()
}

// RenderChartCard renders a ticker summary card.
func RenderChartCard(chart *ChartData) string {
	name := chart.Ticker
	if chart.CompanyName != "" {
		name = fmt.Sprintf("%s (%s)", chart.CompanyName, chart.Ticker)
	}

	change := fmt.Sprintf("%+.2f%%", chart.PriceChangePercent)
	if chart.PriceChangePercent >= 0 {
		change = color.GreenString(change)
	} else {
		change = color.RedString(change)
	}

	var b strings.Builder
	b.WriteString(cardTitleStyle.Render(name) + "\n\n")
	b.WriteString(fmt.Sprintf("Price: ₹%.2f  %s\n", chart.CurrentPrice, change))
	if chart.FiftyTwoWeekHigh != nil && chart.FiftyTwoWeekLow != nil {
		b.WriteString(fmt.Sprintf("52w range: ₹%.2f – ₹%.2f\n", *chart.FiftyTwoWeekLow, *chart.FiftyTwoWeekHigh))
	}
	if n := len(chart.HistoricalPrices); n > 0 {
		first := chart.HistoricalPrices[0]
		last := chart.HistoricalPrices[n-1]
		b.WriteString(cardMetaStyle.Render(fmt.Sprintf("%d data points, %s → %s", n, first.Date, last.Date)))
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// PackMarkdown builds the markdown document for one saved report pack.
func PackMarkdown(rep *data.SavedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	fmt.Fprintf(&b, "*%s · %s tone*\n\n", rep.CreatedAt.Format("2006-01-02 15:04"), rep.Tone)

	writeVariant := func(label string, res data.VariantResult) {
		fmt.Fprintf(&b, "## Variant %s\n\n", label)
		if res.LinkedIn != nil {
			b.WriteString("### LinkedIn\n\n")
			b.WriteString(res.LinkedIn.Content + "\n\n")
			if len(res.LinkedIn.Hashtags) > 0 {
				fmt.Fprintf(&b, "`#%s`\n\n", strings.Join(res.LinkedIn.Hashtags, "` `#"))
			}
			fmt.Fprintf(&b, "_%d characters_\n\n", res.LinkedIn.CharacterCount)
		}
		if res.WhatsApp != nil {
			b.WriteString("### WhatsApp\n\n")
			b.WriteString(res.WhatsApp.FormattedMessage + "\n\n")
		}
		if len(res.DetectedTickers) > 0 {
			fmt.Fprintf(&b, "### Tickers\n\n%s\n\n", strings.Join(res.DetectedTickers, ", "))
		}
	}

	writeVariant("A", rep.VariantA)
	if rep.VariantB != nil {
		writeVariant("B", *rep.VariantB)
	}
	return b.String()
}

// RenderPack glamour-renders a saved report pack for the terminal.
func RenderPack(rep *data.SavedReport) (string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Auto-detect dark/light mode
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := tr.Render(PackMarkdown(rep))
	if err != nil {
		return "", fmt.Errorf("cannot render markdown: %w", err)
	}
	return out, nil
}
