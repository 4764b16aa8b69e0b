package history

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/datastore"
	"github.com/tphakala/ssvep-go/internal/device"
	"github.com/tphakala/ssvep-go/internal/errors"
)

// Command creates the history command, which lists past runs or shows the
// per-trial predictions of one run.
func Command(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show the run history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings, nil)
			if store == nil {
				return errors.Newf("run history is disabled, enable output.sqlite or output.mysql").
					Component("history").
					Category(errors.CategoryConfiguration).
					Build()
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.GetRun(args[0])
				if err != nil {
					return err
				}
				return printRun(run)
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			return printRuns(runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")

	return cmd
}

func printRuns(runs []datastore.Run) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tMODE\tSTARTED\tTRIALS\tRESULT\tERROR")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.UUID, r.Mode, r.StartedAt.Format(time.DateTime), r.Trials, result(r), r.Error)
	}
	return tw.Flush()
}

func result(r *datastore.Run) string {
	if r.Mode == datastore.ModeTrain {
		return fmt.Sprintf("accuracy %.2f", r.Accuracy)
	}
	if r.Votes == 0 {
		return "-"
	}
	return fmt.Sprintf("%s Hz, sms %s", device.FormatLabel(r.Label), r.SMSStatus)
}

func printRun(r *datastore.Run) error {
	fmt.Printf("Run %s (%s) started %s, took %s\n", r.UUID, r.Mode, r.StartedAt.Format(time.DateTime), r.Duration.Round(time.Millisecond))
	fmt.Printf("Input: %s\nResult: %s\n", r.Input, result(r))
	if r.Error != "" {
		fmt.Printf("Error: %s\n", r.Error)
	}
	if len(r.Predictions) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tTRIAL\tLABEL")
	for _, p := range r.Predictions {
		fmt.Fprintf(tw, "%s\t%s\t%s Hz\n", p.Record, strconv.Itoa(p.Trial), device.FormatLabel(p.Label))
	}
	return tw.Flush()
}
