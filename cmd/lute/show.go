package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showCmd = &cobra.Command{
	Use:   "show [composer]",
	Short: "Show a merged composer record from the state database",
	Long: `Display the merged record of one composer as stored by 'lute parse',
along with the MIDI files downloaded for that composer.

Without an argument, list the stored composers by nationality.
With --search, list the composers whose name contains the text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("search", "", "list composers whose name contains this text")
	showCmd.Flags().Bool("all", false, "list every stored composer")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	count, err := db.CountComposers()
	if err != nil {
		return fmt.Errorf("failed to count composers: %w", err)
	}
	if count == 0 {
		util.WarnLog("No composers stored. Run 'lute parse' first.")
		return nil
	}

	search, _ := cmd.Flags().GetString("search")
	all, _ := cmd.Flags().GetBool("all")

	switch {
	case len(args) == 1:
		return showComposer(db, args[0])
	case search != "" || all:
		var list []*composer.Merged
		if all {
			list, err = db.ListComposers()
		} else {
			list, err = db.SearchComposers(search)
		}
		if err != nil {
			return fmt.Errorf("failed to list composers: %w", err)
		}
		for _, m := range list {
			fmt.Printf("%-40s %s–%s  %s\n", m.Composer, orUnknown(m.DateOfBirth), orUnknown(m.DateOfDeath), orUnknown(m.Nationality))
		}
		util.InfoLog("%d composers", len(list))
		return nil
	}

	counts, err := db.CountByNationality()
	if err != nil {
		return fmt.Errorf("failed to count nationalities: %w", err)
	}
	fmt.Printf("%d composers\n\n", count)
	for _, nc := range counts {
		fmt.Printf("  %-25s %d\n", orUnknown(nc.Nationality), nc.Count)
	}
	return nil
}

func showComposer(db *store.Store, name string) error {
	m, err := db.GetComposer(name)
	if err != nil {
		return fmt.Errorf("failed to get composer: %w", err)
	}
	if m == nil {
		matches, _ := db.SearchComposers(name)
		if len(matches) == 0 {
			return fmt.Errorf("composer %q: %w", name, util.ErrNotFound)
		}
		util.WarnLog("No exact match for %q. Similar names:", name)
		for _, s := range matches {
			fmt.Printf("  %s\n", s.Composer)
		}
		return nil
	}

	fmt.Print(formatComposer(m))

	downloads, err := db.GetComposerDownloads(m.Composer)
	if err != nil {
		return fmt.Errorf("failed to get downloads: %w", err)
	}
	if len(downloads) > 0 {
		var total int64
		for _, d := range downloads {
			total += d.BytesWritten
		}
		fmt.Printf("\nMIDI files (%d, %s):\n", len(downloads), humanize.Bytes(uint64(total)))
		for _, d := range downloads {
			fmt.Printf("  %s  (%s)\n", d.Path, humanize.Time(d.CompletedAt))
		}
	}
	return nil
}

// formatComposer renders a merged record as aligned label: value lines
func formatComposer(m *composer.Merged) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.Composer)
	fmt.Fprintf(&b, "  Born:        %s\n", place(m.DateOfBirth, m.BirthTown, m.BirthCountry))
	fmt.Fprintf(&b, "  Died:        %s\n", place(m.DateOfDeath, m.DeathTown, m.DeathCountry))
	fmt.Fprintf(&b, "  Nationality: %s\n", orUnknown(m.Nationality))
	return b.String()
}

// place joins the known parts of a life event: "1563, London, England"
func place(year, town, country string) string {
	var parts []string
	for _, p := range []string{year, town, country} {
		if p != composer.Unknown {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}

func orUnknown(s string) string {
	if s == composer.Unknown {
		return "unknown"
	}
	return s
}
