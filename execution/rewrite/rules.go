package rewrite

import (
	"coredb/storage/catalog"
	"coredb/storage/expr"
)

// SeqScanAsIndexScan rewrites a SeqScanPlan whose Filter is a single
// column-equals-constant comparison into an IndexScanPlan, when the
// filtered column has a hash index over it. A compound predicate
// (anything under an AND/OR) is left as a sequential scan — Filter
// Predicate Pushdown split it up front in the original, which this
// core has no binder to run, so only the single-comparison shape is
// recognized. Grounded on seqscan_as_indexscan.cpp.
func SeqScanAsIndexScan(cat *catalog.Catalog, plan PlanNode) PlanNode {
	plan = recurse(plan, func(c PlanNode) PlanNode { return SeqScanAsIndexScan(cat, c) })

	scan, ok := plan.(*SeqScanPlan)
	if !ok || scan.Filter == nil {
		return plan
	}
	cmp, ok := scan.Filter.(expr.Comparison)
	if !ok || cmp.Op != expr.Eq {
		return plan
	}

	colRef, constant, ok := splitColumnEquality(cmp)
	if !ok {
		return plan
	}

	for _, idx := range cat.GetTableIndexes(scan.Table) {
		if idx.ColumnIdx == colRef.Index {
			return &IndexScanPlan{
				Schema:   scan.Schema,
				Table:    scan.Table,
				Index:    idx.OID,
				ProbeKey: constant,
			}
		}
	}
	return plan
}

// splitColumnEquality recognizes `col = const` or `const = col`.
func splitColumnEquality(cmp expr.Comparison) (expr.ColumnRef, expr.Constant, bool) {
	if col, ok := cmp.Left.(expr.ColumnRef); ok {
		if con, ok := cmp.Right.(expr.Constant); ok {
			return col, con, true
		}
	}
	if col, ok := cmp.Right.(expr.ColumnRef); ok {
		if con, ok := cmp.Left.(expr.Constant); ok {
			return col, con, true
		}
	}
	return expr.ColumnRef{}, expr.Constant{}, false
}

// SortLimitAsTopN fuses a LimitPlan directly over a SortPlan into one
// TopNPlan. Grounded on sort_limit_as_topn.cpp.
func SortLimitAsTopN(plan PlanNode) PlanNode {
	plan = recurse(plan, SortLimitAsTopN)

	limit, ok := plan.(*LimitPlan)
	if !ok {
		return plan
	}
	sortPlan, ok := limit.Child.(*SortPlan)
	if !ok {
		return plan
	}
	return &TopNPlan{
		Schema:   limit.Schema,
		Child:    sortPlan.Child,
		OrderBys: sortPlan.OrderBys,
		N:        limit.N,
	}
}

// NLJAsHashJoin rewrites a NestedLoopJoinPlan whose predicate is a
// conjunction of one or more column-equals-column comparisons (one
// side from the left child, one from the right) into a HashJoinPlan.
// Any predicate that isn't a pure AND-of-equalities — an OR, a
// non-equality comparison, a comparison between two columns on the
// same side — is left as a nested-loop join. Grounded on
// nlj_as_hash_join.cpp's ParseAndExpression/OptimizeNLJAsHashJoin.
func NLJAsHashJoin(plan PlanNode) PlanNode {
	plan = recurse(plan, NLJAsHashJoin)

	join, ok := plan.(*NestedLoopJoinPlan)
	if !ok || join.Predicate == nil {
		return plan
	}

	var leftKeys, rightKeys []expr.Expression
	if !parseEquiJoin(join.Predicate, &leftKeys, &rightKeys) {
		return plan
	}
	return &HashJoinPlan{
		Schema:    join.Schema,
		Left:      join.Left,
		Right:     join.Right,
		LeftKeys:  leftKeys,
		RightKeys: rightKeys,
		JoinType:  join.JoinType,
	}
}

func parseEquiJoin(predicate expr.Expression, left, right *[]expr.Expression) bool {
	if logic, ok := predicate.(expr.Logic); ok {
		if logic.Op != expr.And {
			return false
		}
		return parseEquiJoin(logic.Left, left, right) && parseEquiJoin(logic.Right, left, right)
	}

	cmp, ok := predicate.(expr.Comparison)
	if !ok || cmp.Op != expr.Eq {
		return false
	}
	lcol, lok := cmp.Left.(expr.ColumnRef)
	rcol, rok := cmp.Right.(expr.ColumnRef)
	if !lok || !rok {
		return false
	}
	switch {
	case lcol.Side == expr.SideLeft && rcol.Side == expr.SideRight:
		*left = append(*left, cmp.Left)
		*right = append(*right, cmp.Right)
	case lcol.Side == expr.SideRight && rcol.Side == expr.SideLeft:
		*left = append(*left, cmp.Right)
		*right = append(*right, cmp.Left)
	default:
		return false
	}
	return true
}
