package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/activebook/reportflow/data"
	"github.com/activebook/reportflow/internal/ui"
	"github.com/activebook/reportflow/service"
)

// The backend rejects anything shorter; checking locally gives a
// friendlier message than the HTTP 422.
const minReportChars = 50

var (
	genTone     string
	genVariant  string
	genBoth     bool
	genNoSave   bool
	genNoStream bool
	genFrom     string
)

var generateCmd = &cobra.Command{
	Use:   "generate [report]",
	Short: "Transform an analyst report into social media drafts",
	Long: `Send an analyst report to the transform service and stream back
LinkedIn and WhatsApp drafts. The report can be given as a file path,
as literal text, piped on stdin, or entered interactively.

Completed runs are saved to local history automatically (see
'reportflow report list'). Use --variant B to generate an alternate
take; with --both the A and B variants are generated back to back and
stored together.`,
	Example: `  reportflow generate quarterly_review.txt
  cat report.txt | reportflow generate --tone punchy
  reportflow generate --both "TCS posted strong Q2 results..."
  reportflow generate --variant B --from 1`,
	Args: cobra.ArbitraryArgs,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

// addGenerateFlags registers the generate flag set; the root command
// shares it so "reportflow report.txt" works without the subcommand.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&genTone, "tone", "t", "", "Writing tone: professional, conversational or punchy")
	cmd.Flags().StringVar(&genVariant, "variant", "", "Variant to generate: A or B")
	cmd.Flags().BoolVar(&genBoth, "both", false, "Generate variant A then variant B")
	cmd.Flags().BoolVar(&genNoSave, "no-save", false, "Do not save the result to history")
	cmd.Flags().BoolVar(&genNoStream, "no-stream", false, "Use the non-streaming endpoint and print the final result only")
	cmd.Flags().StringVar(&genFrom, "from", "", "Reuse the report text of a saved pack (index, id or id prefix)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	store := data.DefaultReportStore(viper.GetInt("history.max"))

	variant := service.Variant(strings.ToUpper(genVariant))
	if genVariant == "" {
		variant = service.Variant(viper.GetString("default.variant"))
	}
	if variant != service.VariantA && variant != service.VariantB {
		return fmt.Errorf("invalid variant '%s' (must be A or B)", genVariant)
	}
	if genBoth {
		variant = service.VariantA
	}

	// A lone B run without input defaults to the most recent pack, so
	// "generate --variant B" regenerates an alternate for the last run.
	if variant == service.VariantB && !genBoth && genFrom == "" && len(args) == 0 && !hasStdinData() {
		genFrom = "1"
	}

	reportText, fromID, err := resolveReportText(args, store)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(reportText)) < minReportChars {
		return fmt.Errorf("report text must be at least %d characters (got %d)", minReportChars, len(strings.TrimSpace(reportText)))
	}

	tone, err := resolveTone()
	if err != nil {
		return err
	}

	client := service.NewClient(viper.GetString("service.endpoint"))

	if genNoStream {
		return runGenerateOnce(client, reportText, tone, variant)
	}

	gen := service.NewGeneration(store,
		service.WithOnSuccess(service.Celebrate),
		service.WithNotify(printStreamNotify),
		service.WithAutoSave(!genNoSave),
	)

	// A lone B run merges into an existing pack rather than creating one.
	if variant == service.VariantB && fromID != "" {
		gen.SetActiveReport(fromID)
	}

	if err := streamVariant(gen, client, reportText, tone, variant); err != nil {
		return err
	}
	if genBoth {
		fmt.Println()
		if err := streamVariant(gen, client, reportText, tone, service.VariantB); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Print(service.RenderVariantCards(gen.Result(variant)))
	if genBoth {
		fmt.Print(service.RenderVariantCards(gen.Result(service.VariantB)))
	}
	if id := gen.ActiveReportID(); id != "" {
		fmt.Printf("Saved to history as %s\n", shortID(id))
	}
	return nil
}

// streamVariant runs one streaming generation to completion and
// reports partial output when the stream drops.
func streamVariant(gen *service.Generation, client *service.Client, reportText string, tone service.Tone, variant service.Variant) error {
	fmt.Printf("%s variant %s (%s tone)\n", color.HiBlueString("Generating"), variant, tone)

	run := gen.Start(reportText, tone, variant)
	ui.GetIndicator().Start("")

	err := client.TransformStream(context.Background(), service.TransformRequest{
		ReportText: reportText,
		Tone:       tone,
		Variant:    variant,
	}, run.Handlers())

	ui.GetIndicator().Stop()

	if err != nil {
		// Pre-stream failures return without a callback; mark the run
		// failed so its save intent cannot linger.
		run.Abort(err)
		if li, wa := gen.Buffers(); li != "" || wa != "" {
			fmt.Fprintf(os.Stderr, "\n%s partial output kept for reference\n", color.YellowString("Note:"))
		}
		return err
	}
	return nil
}

// runGenerateOnce hits the non-streaming endpoint and renders the
// finished pack in one go.
func runGenerateOnce(client *service.Client, reportText string, tone service.Tone, variant service.Variant) error {
	ui.GetIndicator().Start("")
	resp, err := client.Transform(context.Background(), service.TransformRequest{
		ReportText: reportText,
		Tone:       tone,
		Variant:    variant,
	})
	ui.GetIndicator().Stop()
	if err != nil {
		return err
	}

	res := service.VariantResult{
		LinkedIn:        &resp.LinkedIn,
		WhatsApp:        &resp.WhatsApp,
		DetectedTickers: resp.DetectedTickers,
		PrimaryChart:    resp.PrimaryChart,
	}
	fmt.Print(service.RenderVariantCards(res))

	if !genNoSave {
		store := data.DefaultReportStore(viper.GetInt("history.max"))
		rep := &data.SavedReport{
			Title:      service.DeriveTitle(resp.LinkedIn.Content),
			ReportText: reportText,
			Tone:       string(tone),
			VariantA:   res,
		}
		id, err := store.Save(rep)
		if err != nil {
			service.Warnf("failed to save report: %v", err)
		} else {
			fmt.Printf("Saved to history as %s\n", shortID(id))
		}
	}
	return nil
}

// printStreamNotify renders generation progress to the terminal,
// pausing the spinner around printed output so lines never overlap.
func printStreamNotify(n service.StreamNotify) {
	ind := ui.GetIndicator()

	switch n.Status {
	case service.StatusStarted:
		ind.Stop()
		switch n.Surface {
		case service.SurfaceChart:
			ind.Start(fmt.Sprintf("Fetching chart for %s", n.Data))
		default:
			fmt.Printf("\n%s\n", color.New(color.FgHiCyan, color.Bold).Sprintf("── %s ──", n.Surface))
		}
	case service.StatusData:
		fmt.Print(n.Data)
	case service.StatusFinished:
		if n.Surface == service.SurfaceChart {
			ind.Stop()
			fmt.Printf("\n%s chart ready\n", color.GreenString("✓"))
		} else {
			fmt.Println()
			ind.Start("")
		}
	case service.StatusError:
		ind.Stop()
		if n.Surface == service.SurfaceChart {
			fmt.Fprintf(os.Stderr, "%s chart unavailable: %s\n", color.YellowString("!"), n.Data)
		} else {
			fmt.Fprintf(os.Stderr, "\n%s %s\n", color.RedString("Error:"), n.Data)
		}
	}
}

// resolveReportText gathers the report input in priority order:
// --from (saved pack), file path argument, literal text argument,
// piped stdin, then an interactive editor.
func resolveReportText(args []string, store *data.ReportStore) (text, fromID string, err error) {
	if genFrom != "" {
		rep, err := store.Get(genFrom)
		if err != nil {
			return "", "", err
		}
		return rep.ReportText, rep.ID, nil
	}

	if len(args) > 0 {
		joined := strings.Join(args, " ")
		if len(args) == 1 {
			if info, statErr := os.Stat(args[0]); statErr == nil && !info.IsDir() {
				raw, readErr := os.ReadFile(args[0])
				if readErr != nil {
					return "", "", fmt.Errorf("failed to read report file: %w", readErr)
				}
				return string(raw), "", nil
			}
		}
		return joined, "", nil
	}

	if hasStdinData() {
		return readStdin(), "", nil
	}

	var entered string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Paste the analyst report").
				Description(fmt.Sprintf("At least %d characters. Ctrl+J for a new line, Enter to submit.", minReportChars)).
				Value(&entered),
		),
	).WithKeyMap(GetHuhKeyMap())
	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("input cancelled: %w", err)
	}
	return entered, "", nil
}

// resolveTone picks the tone from the flag, falling back to an
// interactive select when the terminal allows, then the config default.
func resolveTone() (service.Tone, error) {
	if genTone != "" {
		if !service.ValidTone(genTone) {
			return "", fmt.Errorf("invalid tone '%s' (must be one of: professional, conversational, punchy)", genTone)
		}
		return service.Tone(genTone), nil
	}

	fallback := viper.GetString("default.tone")
	if !service.ValidTone(fallback) {
		fallback = string(service.ToneProfessional)
	}
	if hasStdinData() {
		// Non-interactive: stdin is occupied by the piped report.
		return service.Tone(fallback), nil
	}

	selected := fallback
	var opts []huh.Option[string]
	for _, t := range service.Tones {
		opts = append(opts, huh.NewOption(string(t), string(t)))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tone").
				Options(opts...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("tone selection cancelled: %w", err)
	}
	return service.Tone(selected), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
