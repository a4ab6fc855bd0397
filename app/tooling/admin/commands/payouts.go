package commands

import (
	"fmt"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/spf13/cobra"
)

var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "List payouts waiting on the dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.New(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		pending, err := db.ListPendingPayouts()
		if err != nil {
			return err
		}

		for _, p := range pending {
			fmt.Printf("payout[%d] %s net[%d] fee[%d] created[%s]\n",
				p.ID, p.Address, p.AmountMicro, p.FeeMicro, p.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("pending[%d]\n", len(pending))

		return nil
	},
}
