// Command cli renders dashboard reports in the terminal from a local CSV
// or XLSX export, without running the API server.
package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iamdaviwilliam/phiq-insights/internal/analytics"
	"github.com/iamdaviwilliam/phiq-insights/internal/format"
	"github.com/iamdaviwilliam/phiq-insights/internal/ingest"
	"github.com/iamdaviwilliam/phiq-insights/internal/logger"
	"github.com/iamdaviwilliam/phiq-insights/internal/model"
	"github.com/iamdaviwilliam/phiq-insights/internal/rules"
)

type cliOptions struct {
	rulesFile  string
	franchise  string
	states     []string
	franchises []string
	segments   []string
	cohort     string
	from       string
	to         string
}

func main() {
	log := logger.New()

	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "phiq-insights",
		Short:         "Sales analytics reports from CSV/XLSX exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "Business rules file (defaults to built-in rules)")
	root.PersistentFlags().StringVar(&opts.franchise, "franchise", "PHIQ", "Default franchise for exports without a franchise column")
	root.PersistentFlags().StringSliceVar(&opts.states, "states", nil, "Filter by state codes")
	root.PersistentFlags().StringSliceVar(&opts.franchises, "franchises", nil, "Filter by franchises")
	root.PersistentFlags().StringSliceVar(&opts.segments, "segments", nil, "Filter by segments")
	root.PersistentFlags().StringVar(&opts.cohort, "cohort", "", "Restrict to a manager cohort")
	root.PersistentFlags().StringVar(&opts.from, "from", "", "Start date (yyyy-mm-dd, inclusive)")
	root.PersistentFlags().StringVar(&opts.to, "to", "", "End date (yyyy-mm-dd, inclusive)")

	root.AddCommand(reportCommand(opts, log))
	root.AddCommand(recurrenceCommand(opts, log))
	root.AddCommand(classifyCommand(opts, log))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func reportCommand(opts *cliOptions, log zerolog.Logger) *cobra.Command {
	var granularity, metric string

	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Print the overview report for an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, ds, err := loadDataset(opts, log, args[0])
			if err != nil {
				return err
			}
			fc, err := opts.filter()
			if err != nil {
				return err
			}
			fc.Granularity = model.Granularity(granularity)
			fc.Metric = model.ProductMetric(metric)

			ds, err = engine.Filter(ds, fc)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			total := engine.TotalRevenue(ds)
			fmt.Fprintf(w, "Rows:\t%s\n", format.Integer(int64(ds.Len())))
			fmt.Fprintf(w, "Revenue:\t%s\t(%s)\n", format.Currency(total), format.CurrencyCompact(total))

			ticket, err := engine.AverageTicket(ds)
			switch {
			case errors.Is(err, analytics.ErrNoOrderColumn):
				fmt.Fprintf(w, "Avg ticket:\t%s\t(no order column)\n", format.Currency(ticket))
			case err != nil:
				return err
			default:
				fmt.Fprintf(w, "Avg ticket:\t%s\n", format.Currency(ticket))
			}

			fmt.Fprintln(w, "\nRevenue by period")
			for _, p := range engine.RevenueByPeriod(ds, fc) {
				fmt.Fprintf(w, "  %s\t%s\n", p.Label, format.Currency(p.Revenue))
			}

			classified, err := engine.Classify(ds)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "\nPurchase types")
			for _, s := range analytics.SummarizeByType(classified) {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", s.Type, format.Integer(int64(s.Count)), format.Currency(s.Revenue))
			}

			fmt.Fprintln(w, "\nTop customers")
			for _, c := range engine.TopCustomers(ds, 10) {
				fmt.Fprintf(w, "  %s\t%s\n", c.CustomerID, format.Currency(c.Revenue))
			}

			fmt.Fprintln(w, "\nTop products")
			for _, p := range engine.TopProducts(ds, 10, fc) {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", p.Product, format.Integer(p.Quantity), format.Currency(p.Revenue))
			}

			if methods := engine.RevenueByPayment(ds); len(methods) > 0 {
				fmt.Fprintln(w, "\nPayment methods")
				for _, m := range methods {
					fmt.Fprintf(w, "  %s\t%s\n", m.Method, format.Currency(m.Revenue))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&granularity, "granularity", "", "Revenue bucketing: month or day")
	cmd.Flags().StringVar(&metric, "metric", "", "Product ranking metric: quantity or revenue")
	return cmd
}

func recurrenceCommand(opts *cliOptions, log zerolog.Logger) *cobra.Command {
	var customers []string

	cmd := &cobra.Command{
		Use:   "recurrence FILE",
		Short: "Print purchase cadence and next-purchase projections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, ds, err := loadDataset(opts, log, args[0])
			if err != nil {
				return err
			}
			fc, err := opts.filter()
			if err != nil {
				return err
			}
			ds, err = engine.Filter(ds, fc)
			if err != nil {
				return err
			}

			if len(customers) > 0 {
				wanted := make(map[string]struct{}, len(customers))
				for _, c := range customers {
					wanted[c] = struct{}{}
				}
				rows := make([]model.Transaction, 0, len(ds.Rows))
				for _, t := range ds.Rows {
					if _, ok := wanted[t.CustomerID]; ok {
						rows = append(rows, t)
					}
				}
				ds = ds.WithRows(rows)
			}

			recs := engine.Recurrence(ds)
			if len(recs) == 0 {
				fmt.Println("No customers with two or more purchase dates.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "Customer\tPurchases\tCadence\tLast\tNext predicted")
			for _, rec := range recs {
				row := rec.Display()
				fmt.Fprintf(w, "%s\t%d\t%d days\t%s\t%s\n",
					row.CustomerID, row.PurchaseCount, row.CadenceDays, row.LastPurchase, row.NextPredicted)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&customers, "customers", nil, "Restrict to specific customers (default: all eligible)")
	return cmd
}

func classifyCommand(opts *cliOptions, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Tag every row as new-customer or repeat purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, ds, err := loadDataset(opts, log, args[0])
			if err != nil {
				return err
			}
			fc, err := opts.filter()
			if err != nil {
				return err
			}
			ds, err = engine.Filter(ds, fc)
			if err != nil {
				return err
			}

			classified, err := engine.Classify(ds)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "Customer\tDate\tAmount\tType")
			for _, c := range classified {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					c.CustomerID, c.InvoiceDate.Format("02/01/2006"), format.Currency(c.Amount), c.PurchaseType)
			}
			return nil
		},
	}
}

// loadDataset builds the engine and parses the export at path.
func loadDataset(opts *cliOptions, log zerolog.Logger, path string) (*analytics.Engine, *model.Dataset, error) {
	ruleSet, err := rules.Load(opts.rulesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loadDataset: load rules: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loadDataset: %w", err)
	}
	defer f.Close()

	normalizer := ingest.NewNormalizer(ruleSet, opts.franchise, log)
	ds, report, err := normalizer.Load(path, f)
	if err != nil {
		return nil, nil, fmt.Errorf("loadDataset: %w", err)
	}
	if dropped := report.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d rows dropped during normalization\n", dropped, report.RowsIn)
	}

	return analytics.NewEngine(ruleSet, log), ds, nil
}

func (o *cliOptions) filter() (model.FilterContext, error) {
	fc := model.FilterContext{
		States:     o.states,
		Franchises: o.franchises,
		Segments:   o.segments,
		Cohort:     o.cohort,
	}
	if o.from != "" {
		from, err := time.ParseInLocation("2006-01-02", o.from, time.UTC)
		if err != nil {
			return fc, fmt.Errorf("invalid --from date %q", o.from)
		}
		fc.From = from
	}
	if o.to != "" {
		to, err := time.ParseInLocation("2006-01-02", o.to, time.UTC)
		if err != nil {
			return fc, fmt.Errorf("invalid --to date %q", o.to)
		}
		fc.To = to
	}
	return fc, nil
}
