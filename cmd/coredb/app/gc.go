package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "gc",
		Short: "Force one garbage-collection pass over every table's undo chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			before := eng.TxnMgr.GetWatermark()
			eng.TxnMgr.GarbageCollection()
			fmt.Printf("garbage collection pass complete, watermark=%d\n", before)
			return nil
		},
	})
}
