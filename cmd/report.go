package cmd

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/activebook/reportflow/data"
	"github.com/activebook/reportflow/service"
)

var (
	reportForce      bool
	reportExportYAML bool
	reportShowRaw    bool
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"reports", "history"},
	Short:   "Manage saved report packs",
	Long: `List, inspect and manage the local history of generated packs.
History lives in the app config directory and keeps the most recent
runs (see 'history.max' in the config file).

Packs can be referenced by list index, full id, or a unique id prefix.`,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved report packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := reportStore().List()
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No saved reports. Run 'reportflow generate' first.")
			return nil
		}

		bold := color.New(color.Bold).SprintFunc()
		dim := color.New(color.Faint).SprintFunc()
		for i, rep := range reports {
			marks := ""
			if rep.VariantB != nil {
				marks = " [A+B]"
			}
			fmt.Printf("%2d. %s%s\n", i+1, bold(rep.Title), marks)
			fmt.Printf("    %s\n", dim(fmt.Sprintf("%s · %s · %s", shortID(rep.ID), rep.CreatedAt.Format("2006-01-02 15:04"), rep.Tone)))
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show one report pack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := reportStore().Get(args[0])
		if err != nil {
			return err
		}
		if reportShowRaw {
			fmt.Print(service.PackMarkdown(rep))
			return nil
		}
		rendered, err := service.RenderPack(rep)
		if err != nil {
			return err
		}
		return pageContent(rep.Title, rep.Tone, rendered)
	},
}

var reportRemoveCmd = &cobra.Command{
	Use:     "remove [ref...]",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove saved report packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := reportStore()

		refs := args
		if len(refs) == 0 {
			// Interactive multi-select when nothing was named.
			reports, err := store.List()
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("No saved reports.")
				return nil
			}
			var opts []huh.Option[string]
			for i, rep := range reports {
				label := fmt.Sprintf("%2d. %s (%s)", i+1, rep.Title, rep.CreatedAt.Format("2006-01-02"))
				opts = append(opts, huh.NewOption(label, rep.ID))
			}
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewMultiSelect[string]().
						Title("Select reports to remove").
						Options(opts...).
						Value(&refs),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("selection cancelled: %w", err)
			}
			if len(refs) == 0 {
				fmt.Println("Nothing selected.")
				return nil
			}
		}

		// Resolve everything up front so one bad ref aborts cleanly
		// before anything is deleted.
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			rep, err := store.Get(ref)
			if err != nil {
				return err
			}
			ids = append(ids, rep.ID)
		}
		for _, id := range ids {
			if err := store.Delete(id); err != nil {
				return err
			}
		}
		fmt.Printf("Removed %d report(s).\n", len(ids))
		return nil
	},
}

var reportClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the whole report history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !reportForce {
			confirmed := false
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Remove all saved reports?").
						Value(&confirmed),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("confirmation cancelled: %w", err)
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}
		if err := reportStore().Clear(); err != nil {
			return err
		}
		fmt.Println("Report history cleared.")
		return nil
	},
}

var reportRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a saved report pack",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := reportStore()
		rep, err := store.Get(args[0])
		if err != nil {
			return err
		}
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			return fmt.Errorf("title cannot be empty")
		}
		if err := store.SetTitle(rep.ID, title); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to '%s'.\n", shortID(rep.ID), title)
		return nil
	},
}

var reportDiffCmd = &cobra.Command{
	Use:   "diff <ref>",
	Short: "Diff the LinkedIn drafts of variants A and B",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := reportStore().Get(args[0])
		if err != nil {
			return err
		}
		if rep.VariantA.LinkedIn == nil {
			return fmt.Errorf("report '%s' has no variant A LinkedIn draft", shortID(rep.ID))
		}
		if rep.VariantB == nil || rep.VariantB.LinkedIn == nil {
			return fmt.Errorf("report '%s' has no variant B (generate one with --variant B --from %s)", shortID(rep.ID), shortID(rep.ID))
		}
		fmt.Print(service.Diff(
			rep.VariantA.LinkedIn.Content,
			rep.VariantB.LinkedIn.Content,
			"variant A", "variant B", 3))
		return nil
	},
}

var reportExportCmd = &cobra.Command{
	Use:   "export <ref> [file]",
	Short: "Export a report pack as markdown or YAML",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := reportStore().Get(args[0])
		if err != nil {
			return err
		}

		var out []byte
		if reportExportYAML {
			out, err = yaml.Marshal(rep)
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
		} else {
			out = []byte(service.PackMarkdown(rep))
		}

		if len(args) == 2 {
			if err := os.WriteFile(args[1], out, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Printf("Exported to %s\n", args[1])
			return nil
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	reportShowCmd.Flags().BoolVar(&reportShowRaw, "raw", false, "Print plain markdown instead of the pager")
	reportClearCmd.Flags().BoolVarP(&reportForce, "force", "f", false, "Skip the confirmation prompt")
	reportExportCmd.Flags().BoolVar(&reportExportYAML, "yaml", false, "Export as YAML instead of markdown")

	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportRemoveCmd)
	reportCmd.AddCommand(reportClearCmd)
	reportCmd.AddCommand(reportRenameCmd)
	reportCmd.AddCommand(reportDiffCmd)
	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}

func reportStore() *data.ReportStore {
	return data.DefaultReportStore(viper.GetInt("history.max"))
}

// pageContent shows rendered output in the scrollable viewport,
// falling back to plain printing when no TTY is attached.
func pageContent(title, label, content string) error {
	if !isTerminal(os.Stdout) {
		fmt.Print(content)
		return nil
	}
	model := NewViewportModel(label, content, func() string { return title })
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}
