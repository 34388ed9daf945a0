package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"franchise-leads/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLeadsCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List and triage franchise leads",
	}

	cmd.AddCommand(newLeadsListCmd(h))
	cmd.AddCommand(newLeadsSetStatusCmd(h))

	return cmd
}

// ---------- leads list ----------

type listOptions struct {
	limit      int
	status     string
	jsonOutput bool
}

func newLeadsListCmd(h *appHolder) *cobra.Command {
	opts := listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List leads, newest first",
		Example: `  lead-admin leads list
  lead-admin leads list --status unassigned --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeadsList(cmd, h.app, opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "show at most this many leads (0 shows all)")
	cmd.Flags().StringVar(&opts.status, "status", "", "only show leads with this interest status")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runLeadsList(cmd *cobra.Command, a *app, opts listOptions) error {
	var filter models.InterestStatus
	if opts.status != "" {
		s, err := models.ParseInterestStatus(opts.status)
		if err != nil {
			return err
		}
		filter = s
	}
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	if err := a.activity(); err != nil {
		return err
	}

	// The filter is applied locally, so a limited listing pages until it
	// has enough matches.
	var (
		leads  []models.Lead
		cursor string
	)
	for {
		page, err := a.client.ListLeads(cmd.Context(), opts.limit, cursor)
		if err != nil {
			return a.remoteError(err)
		}
		for _, l := range page.Items {
			if filter != "" && l.InterestStatus != filter {
				continue
			}
			leads = append(leads, l)
		}
		if opts.limit > 0 && len(leads) >= opts.limit {
			leads = leads[:opts.limit]
			break
		}
		if page.NextCursor == "" || opts.limit == 0 {
			break
		}
		cursor = page.NextCursor
	}

	if opts.jsonOutput {
		if leads == nil {
			leads = []models.Lead{}
		}
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	}

	printLeads(a, leads)
	return nil
}

func printLeads(a *app, leads []models.Lead) {
	if len(leads) == 0 {
		fmt.Fprintln(a.out, "  (no leads)")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSTATUS\tNAME\tEMAIL\tPHONE\tCITY\tBUDGET\tRECEIVED")
	fmt.Fprintln(w, "  --\t------\t----\t-----\t-----\t----\t------\t--------")
	for _, l := range leads {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			statusLabel(l.InterestStatus),
			truncate(l.FullName, 24),
			truncate(l.Email, 28),
			l.Phone,
			truncate(l.CityState, 20),
			l.EstimatedBudget,
			l.CreatedAt.Local().Format("Jan 02 15:04"),
		)
	}
	w.Flush()
}

func statusLabel(s models.InterestStatus) string {
	switch s {
	case models.InterestHigh:
		return color.New(color.FgGreen).Sprint(s)
	case models.InterestMedium:
		return color.New(color.FgYellow).Sprint(s)
	case models.InterestLow:
		return color.New(color.FgRed).Sprint(s)
	}
	return string(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ---------- leads set-status ----------

func newLeadsSetStatusCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:       "set-status <lead-id> <high|medium|low|unassigned>",
		Short:     "Set a lead's interest status",
		Example:   `  lead-admin leads set-status 3f2c9a1e-... high`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"high", "medium", "low", "unassigned"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetStatus(cmd, h.app, args[0], args[1])
		},
	}
}

func runSetStatus(cmd *cobra.Command, a *app, id, value string) error {
	status, err := models.ParseInterestStatus(value)
	if err != nil {
		return err
	}
	if err := a.activity(); err != nil {
		return err
	}
	if err := a.client.UpdateStatus(cmd.Context(), id, status); err != nil {
		return a.remoteError(err)
	}
	fmt.Fprintf(a.out, "Lead %s marked %s.\n", id, statusLabel(status))
	return nil
}
