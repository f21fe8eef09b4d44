package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"coredb/execution"
	"coredb/storage/expr"
	"coredb/storage/tuple"
	"coredb/storage/value"
	"coredb/txn"
)

var benchRows int

func init() {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic workload through the scan, write, aggregation, top-N, hash-join and window executors",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchRows, "rows", 20, "number of rows to insert into the synthetic table")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	schema := tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("category", value.Varchar, false),
		tuple.NewColumn("amount", value.Integer, false),
	})

	info, err := eng.Cat.CreateTable("bench_items", schema)
	if err != nil {
		return fmt.Errorf("bench: create table: %w", err)
	}
	idx, err := eng.Cat.CreateIndex("bench_items_id_idx", "bench_items", 0,
		eng.Cfg.HashHeaderMaxDepth, eng.Cfg.HashDirectoryMaxDepth, eng.Cfg.HashBucketMaxSize)
	if err != nil {
		return fmt.Errorf("bench: create index: %w", err)
	}

	categories := []string{"a", "b", "c"}
	rows := make([]*tuple.Tuple, benchRows)
	for i := 0; i < benchRows; i++ {
		rows[i] = tuple.NewTuple(schema, []value.Value{
			value.NewInteger(int32(i)),
			value.NewVarchar(categories[i%len(categories)]),
			value.NewInteger(int32((i + 1) * 10)),
		})
	}

	tx, err := eng.TxnMgr.Begin(txn.SnapshotIsolation)
	if err != nil {
		return fmt.Errorf("bench: begin: %w", err)
	}
	ctx := &execution.Context{Catalog: eng.Cat, TxnMgr: eng.TxnMgr, Txn: tx}

	values := execution.NewValuesExecutor(schema, rows)
	insert := execution.NewInsertExecutor(ctx, info.OID, values)
	inserted, err := drainCount(insert)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: insert: %w", err)
	}
	fmt.Printf("inserted %d rows\n", inserted)

	scan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	scanned, err := drainRows(scan)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: seq scan: %w", err)
	}
	fmt.Printf("seq scan visible rows: %d\n", scanned)

	probe := execution.NewIndexScanExecutor(ctx, info.OID, idx.OID, value.NewInteger(0))
	probed, err := drainRows(probe)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: index scan: %w", err)
	}
	fmt.Printf("index scan matches for id=0: %d\n", probed)

	updateScan := execution.NewSeqScanExecutor(ctx, info.OID,
		expr.NewComparison(expr.NewColumnRef(0), expr.NewConstant(value.NewInteger(0)), expr.Eq))
	update := execution.NewUpdateExecutor(ctx, info.OID, updateScan, []expr.Expression{
		expr.NewColumnRef(0),
		expr.NewColumnRef(1),
		expr.NewArithmetic(expr.NewColumnRef(2), expr.NewConstant(value.NewInteger(1)), expr.Add),
	})
	updated, err := drainCount(update)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: update: %w", err)
	}
	fmt.Printf("updated %d rows\n", updated)

	aggScan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	agg := execution.NewAggregationExecutor(ctx, aggScan,
		[]expr.Expression{expr.NewColumnRef(1)},
		[]execution.AggExpr{{Func: execution.AggSum, Input: expr.NewColumnRef(2), Type: value.Integer}},
	)
	aggregated, err := drainRows(agg)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: aggregation: %w", err)
	}
	fmt.Printf("aggregated groups: %d\n", aggregated)

	sortScan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	topn := execution.NewTopNExecutor(ctx, sortScan, []execution.OrderBy{
		{Direction: execution.Desc, Expr: expr.NewColumnRef(2)},
	}, 5)
	topped, err := drainRows(topn)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: topn: %w", err)
	}
	fmt.Printf("top-n rows: %d\n", topped)

	leftScan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	rightScan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	join := execution.NewHashJoinExecutor(ctx, leftScan, rightScan,
		[]expr.Expression{expr.NewColumnRefOnSide(1, expr.SideLeft)},
		[]expr.Expression{expr.NewColumnRefOnSide(1, expr.SideRight)},
		execution.InnerJoin,
	)
	joined, err := drainRows(join)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: hash join: %w", err)
	}
	fmt.Printf("hash-joined rows (same category): %d\n", joined)

	winScan := execution.NewSeqScanExecutor(ctx, info.OID, nil)
	win := execution.NewWindowFunctionExecutor(ctx, winScan, []execution.WindowSpec{
		{
			Func:        execution.WinRank,
			PartitionBy: []expr.Expression{expr.NewColumnRef(1)},
			OrderBy:     []execution.OrderBy{{Direction: execution.Desc, Expr: expr.NewColumnRef(2)}},
			Type:        value.Integer,
		},
	})
	ranked, err := drainRows(win)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: window function: %w", err)
	}
	fmt.Printf("ranked rows: %d\n", ranked)

	deleteScan := execution.NewSeqScanExecutor(ctx, info.OID,
		expr.NewComparison(expr.NewColumnRef(0), expr.NewConstant(value.NewInteger(0)), expr.Eq))
	del := execution.NewDeleteExecutor(ctx, info.OID, deleteScan)
	deleted, err := drainCount(del)
	if err != nil {
		_ = eng.TxnMgr.Abort(tx)
		return fmt.Errorf("bench: delete: %w", err)
	}
	fmt.Printf("deleted %d rows\n", deleted)

	if err := eng.TxnMgr.Commit(tx); err != nil {
		return fmt.Errorf("bench: commit: %w", err)
	}
	fmt.Println("bench workload committed")
	return nil
}

// drainRows runs ex to completion and counts its output rows.
func drainRows(ex execution.Executor) (int, error) {
	if err := ex.Init(); err != nil {
		return 0, err
	}
	n := 0
	for {
		_, _, ok, err := ex.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// drainCount runs one of the write-path executors (Insert/Update/
// Delete), whose single output row holds the affected row count.
func drainCount(ex execution.Executor) (int, error) {
	if err := ex.Init(); err != nil {
		return 0, err
	}
	tu, _, ok, err := ex.Next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return int(tu.GetValue(0).AsInteger()), nil
}
