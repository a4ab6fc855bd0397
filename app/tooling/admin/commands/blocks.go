package commands

import (
	"fmt"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List the most recent blocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.New(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		blocks, err := db.ListBlocks(20)
		if err != nil {
			return err
		}

		for _, b := range blocks {
			processed := "open"
			if b.ProcessedAt != nil {
				processed = b.ProcessedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("block[%d] seed[%s] processed[%s]\n", b.BlockNumber, b.SeedHex, processed)
		}

		return nil
	},
}
