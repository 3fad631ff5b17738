package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/inkdash/aggregate"
	"github.com/spektr-org/inkdash/dashboard"
	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/selection"
)

var (
	format  string
	outFile string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the per-county offense summary",
	Long: `Print mean prison, probation and parole terms and the offense count for
every county.

Formats:
  json      Table JSON (default)
  pretty    Pretty-printed JSON
  text      Aligned text with the demographics narrative
  csv       Table rows as CSV (ready for Sheets/Excel)`,
	RunE: runSummary,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the selectable charges, counties and tattoo locations",
	RunE:  runOptions,
}

func init() {
	for _, c := range []*cobra.Command{summaryCmd, optionsCmd} {
		c.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, pretty, text, csv")
		c.Flags().StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadTables(background(cmd), cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	counties := aggregate.ByCounty(inmates.OffenseView(tables.Offenses))
	table := dashboard.CountyTable(counties)

	return withOutput(func(w io.Writer) error {
		switch format {
		case "csv":
			return writeTableCSV(w, table)
		case "text":
			shares := aggregate.RaceShares(aggregate.ByCountyRaceSex(inmates.OffenseView(tables.Offenses)))
			writeTableText(w, table)
			fmt.Fprintln(w)
			fmt.Fprintln(w, stripBold(dashboard.RaceNarrative(shares, engine.All)))
			fmt.Fprintln(w, dashboard.CountyNarrative(counties))
			return nil
		default:
			return writeJSON(w, table, format)
		}
	})
}

func runOptions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadTables(background(cmd), cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	opts := dashboard.OptionsFor(tables)

	return withOutput(func(w io.Writer) error {
		switch format {
		case "text", "csv":
			writeList(w, "Charges", opts.Charges)
			writeList(w, "Counties", opts.Counties)
			writeList(w, "Tattoo locations", opts.TattooLocations)
			fmt.Fprintf(w, "Rank limit: %d-%d (default %d)\n", opts.MinRankLimit, opts.MaxRankLimit, selection.DefaultRankLimit)
			return nil
		default:
			return writeJSON(w, opts, format)
		}
	})
}

// ============================================================================
// OUTPUT
// ============================================================================

func withOutput(fn func(io.Writer) error) error {
	if outFile == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("output written")
	return nil
}

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeTableCSV(w io.Writer, t *engine.TableData) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeTableText(w io.Writer, t *engine.TableData) {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c.Label)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, v := range cells {
			if t.Columns[i].Align == "right" {
				parts[i] = fmt.Sprintf("%*s", widths[i], v)
			} else {
				parts[i] = fmt.Sprintf("%-*s", widths[i], v)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	fmt.Fprintln(w, t.Title)
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	line(labels)
	for _, row := range t.Rows {
		line(row)
	}
	if t.Summary != nil {
		fmt.Fprintf(w, "%s", t.Summary.Label)
		for _, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok {
				fmt.Fprintf(w, "  %s: %s", c.Label, v)
			}
		}
		fmt.Fprintln(w)
	}
}

func writeList(w io.Writer, title string, values []string) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(values))
	for _, v := range values {
		fmt.Fprintf(w, "  %s\n", v)
	}
}

func stripBold(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
