package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

func listCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List protocols, newest first",
		Long: `List protocols, newest first. A query keeps only protocols whose anlage,
auftraggeber or auftragNr contains it, ignoring case.

Examples:
  protokoll list
  protokoll list lvum`,
		Args: cobra.MaximumNArgs(1),
		RunE: o.with(func(cmd *cobra.Command, args []string, svcs *service.Services) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			ps := svcs.Protocols.Search(query)
			out := cmd.OutOrStdout()
			if o.json {
				if ps == nil {
					ps = []domain.Protocol{}
				}
				return printJSON(out, ps)
			}
			for _, p := range ps {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID(), p.CreatedAt().Format(domain.DateLayout), p.Anlage(), p.Auftraggeber(), p.AuftragNr(), p.Ergebnis())
			}
			return nil
		}),
	}
}

func summaryCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print protocol counts by verdict",
		Args:  cobra.NoArgs,
		RunE: o.with(func(cmd *cobra.Command, args []string, svcs *service.Services) error {
			s := svcs.Protocols.Summary()
			if o.json {
				return printJSON(cmd.OutOrStdout(), s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gesamt: %d\nKeine Mängel: %d\nMängel: %d\n", s.Total, s.KeineMaengel, s.Maengel)
			return nil
		}),
	}
}

func dueCmd(o *options) *cobra.Command {
	var (
		before string
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List protocols whose next inspection is due",
		Long: `List protocols whose naechstePruefung falls on or before --before
(default today), soonest first. With --notify the list is also sent as an alert.`,
		Args: cobra.NoArgs,
		RunE: o.with(func(cmd *cobra.Command, args []string, svcs *service.Services) error {
			var at time.Time
			if before != "" {
				t, err := time.Parse(domain.DateLayout, before)
				if err != nil {
					return fmt.Errorf("--before %q: want YYYY-MM-DD", before)
				}
				at = t
			}

			due := svcs.Inspections.Due(at)
			out := cmd.OutOrStdout()
			if o.json {
				if due == nil {
					due = []service.DueInspection{}
				}
				if err := printJSON(out, due); err != nil {
					return err
				}
			} else {
				for _, d := range due {
					state := ""
					if d.Overdue {
						state = " (überfällig)"
					}
					fmt.Fprintf(out, "%s\t%s\t%s\t%s%s\n", d.NaechstePruefung, d.ProtocolID, d.Anlage, d.Auftraggeber, state)
				}
			}

			if notify {
				n, err := svcs.Inspections.Remind(cmd.Context(), at)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "reminder sent for %d inspections\n", n)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&before, "before", "", "cutoff date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&notify, "notify", false, "send the list as an alert")
	return cmd
}

func exportCmd(o *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the JSON export of one protocol",
		Long: `Write the JSON export of one protocol to stdout or a file.

Examples:
  protokoll export 6f1c... > protokoll.json
  protokoll export 6f1c... -o .`,
		Args: cobra.ExactArgs(1),
		RunE: o.with(func(cmd *cobra.Command, args []string, svcs *service.Services) error {
			doc, err := svcs.Exports.Export(args[0])
			if err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			switch output {
			case "":
				_, err = cmd.OutOrStdout().Write(doc.Data)
				return err
			case ".":
				output = doc.Filename
			}
			if err := os.WriteFile(output, doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file; "." uses the export filename`)
	return cmd
}
