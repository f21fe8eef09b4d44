package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"coredb/storage/page"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Report buffer pool hit rate, watermark, and active transaction count",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := eng.Pool.Stats()
			footprint := humanize.Bytes(uint64(s.PoolSize) * uint64(page.Size))
			fmt.Printf("buffer pool: size=%d (%s) hits=%s misses=%s hit_rate=%.4f\n",
				s.PoolSize, footprint, humanize.Comma(s.Hits), humanize.Comma(s.Misses), s.HitRate())
			fmt.Printf("watermark: %d\n", eng.TxnMgr.GetWatermark())
			fmt.Printf("active transactions: %d\n", eng.TxnMgr.ActiveTxnCount())
			return nil
		},
	})
}
