package commands

import (
	"fmt"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List every address balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.New(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		balances, err := db.ListBalances()
		if err != nil {
			return err
		}

		var total uint64
		for _, b := range balances {
			fmt.Printf("%s  %d micro\n", b.Address, b.BalanceMicro)
			total += b.BalanceMicro
		}
		fmt.Printf("accounts[%d] total[%d micro]\n", len(balances), total)

		return nil
	},
}
