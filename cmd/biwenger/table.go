package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"biwenger-tracker/internal/domain"
)

func writeBalanceTable(out io.Writer, records []domain.BalanceRecord) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "user\tpoints\tteamValue\tteamSize\tincome\texpenses\tbonuses\tbalance\tmaxBid\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.0f\t\n",
			r.User, r.Points, r.TeamValue, r.TeamSize,
			r.Income, r.Expenses, r.Bonuses, r.Balance, r.MaxBid)
	}
	return tw.Flush()
}
