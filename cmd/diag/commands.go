package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/hwdiag/internal/diagnosis"
	"github.com/pbaille/hwdiag/internal/domain"
	"github.com/pbaille/hwdiag/internal/fetcher"
	"github.com/pbaille/hwdiag/internal/table"
)

func (a *app) setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the database and problems table if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checking database: %s\n", a.cfg.DB)

			if _, err := a.getManager(); err != nil {
				fmt.Fprintln(out, "Database setup FAILED.")
				return err
			}

			fmt.Fprintf(out, "Database '%s' is ready.\n", filepath.Base(a.cfg.DB))
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var (
		fields         domain.Fields
		descriptionURL string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new hardware problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case strings.TrimSpace(fields.Name) == "":
				return fmt.Errorf("--name is required")
			case strings.TrimSpace(fields.Cause) == "":
				return fmt.Errorf("--cause is required")
			case strings.TrimSpace(fields.Solution) == "":
				return fmt.Errorf("--solution is required")
			}

			if fields.Category != "" && !domain.IsCategory(fields.Category) {
				return fmt.Errorf("unknown category %q (see 'diag categories')", fields.Category)
			}

			if fields.EntryDate != "" {
				d, err := domain.ParseDate(fields.EntryDate)
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", fields.EntryDate)
				}
				if d.IsZero() {
					return fmt.Errorf("invalid --date %q: year must be after 0001-01-01", fields.EntryDate)
				}
			} else {
				fields.Date = domain.Today()
			}

			if descriptionURL != "" && !fetcher.IsURL(descriptionURL) {
				return fmt.Errorf("invalid --description-url %q: expected http://, https:// or www.", descriptionURL)
			}

			if descriptionURL != "" {
				fmt.Fprint(cmd.OutOrStdout(), "Fetching description... ")
				page, err := fetcher.New().Fetch(descriptionURL)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "failed: %v\n", err)
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "done")

				if fields.Description != "" {
					fields.Description += "\n\n"
				}
				fields.Description += page.Description()
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			p := domain.NewProblem(fields, a.log)
			if !m.Add(p) {
				return fmt.Errorf("could not save problem %q", p.Name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s [%s] %s\n", p.Name, p.Category, domain.FormatDate(p.EntryDate))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&fields.Name, "name", "n", "", "problem name, e.g. \"No Display\" (required)")
	f.StringVarP(&fields.Description, "description", "d", "", "short description")
	f.StringVar(&descriptionURL, "description-url", "", "fetch the description from a web page")
	f.StringVarP(&fields.Category, "category", "c", domain.DefaultCategory, "category (see 'diag categories')")
	f.StringVar(&fields.Cause, "cause", "", "likely cause (required)")
	f.StringVar(&fields.Solution, "solution", "", "solution steps (required)")
	f.StringVar(&fields.EntryDate, "date", "", "entry date YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		filter   diagnosis.Filter
		from, to string
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded problems, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFilterCategory(filter.Category); err != nil {
				return err
			}

			var err error
			if filter.Start, filter.End, err = parseRange(from, to); err != nil {
				return err
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			t := m.ListFiltered(filter)

			if csvPath != "" {
				return writeCSV(cmd, t, csvPath)
			}

			if t.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No problems recorded yet. Use 'diag add' to create one.")
				return nil
			}
			return renderTable(cmd.OutOrStdout(), t, 40)
		},
	}

	cmd.Flags().StringVarP(&filter.Category, "category", "c", domain.AllCategories, "category filter")
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the listing as CSV to this file ('-' for stdout)")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show problem details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			p, ok := m.GetByID(id)
			if !ok {
				return fmt.Errorf("problem not found: %d", id)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p.Map())
			}

			fmt.Fprintf(out, "ID:       %d\n", p.ID)
			fmt.Fprintf(out, "Date:     %s\n", domain.FormatDate(p.EntryDate))
			fmt.Fprintf(out, "Category: %s\n", p.Category)
			fmt.Fprintf(out, "Name:     %s\n", p.Name)
			if p.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", p.Description)
			}
			fmt.Fprintf(out, "\nCause:\n%s\n", p.Cause)
			fmt.Fprintf(out, "\nSolution:\n%s\n", p.Solution)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the problem as JSON")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete one or more problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			deleted, ok := m.DeleteMany(ids)
			if !ok {
				a.log.Warn("bulk delete incomplete", zap.Int("deleted", deleted), zap.Int("requested", len(ids)))
				return fmt.Errorf("failed to delete problem %d (%d of %d deleted)", ids[deleted], deleted, len(ids))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d problem(s).\n", deleted)
			return nil
		},
	}
}

func (a *app) freqCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "freq",
		Short: "Most frequent problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			t := m.Frequency(start, end)
			if t.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No problems in this period.")
				return nil
			}
			return renderTable(cmd.OutOrStdout(), t, 60)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD (inclusive)")
	return cmd
}

func (a *app) trendCmd() *cobra.Command {
	var (
		category string
		monthly  bool
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Problem counts over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFilterCategory(category); err != nil {
				return err
			}

			m, err := a.getManager()
			if err != nil {
				return err
			}

			t, layout := m.DailyTrend(category), "2006-01-02"
			if monthly {
				t, layout = m.MonthlyTrend(category), "2006-01"
			}

			if t.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No trend data for this category.")
				return nil
			}
			renderTrend(cmd.OutOrStdout(), t, layout)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", domain.AllCategories, "category filter")
	cmd.Flags().BoolVarP(&monthly, "monthly", "m", false, "group by month instead of day")
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List problem categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range domain.Categories {
				if c == domain.DefaultCategory {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", c)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func checkFilterCategory(c string) error {
	if slices.Contains(domain.FilterOptions(), c) {
		return nil
	}
	return fmt.Errorf("unknown category %q (see 'diag categories')", c)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = domain.ParseDate(from); err != nil {
			return start, end, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if end, err = domain.ParseDate(to); err != nil {
			return start, end, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", to)
		}
	}
	return start, end, nil
}

func writeCSV(cmd *cobra.Command, t *table.Table, path string) error {
	if path == "-" {
		return t.WriteCSV(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d row(s) to %s\n", t.Len(), path)
	return nil
}
