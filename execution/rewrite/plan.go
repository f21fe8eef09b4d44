// Package rewrite implements the plan-rewrite rules that run over a
// query's plan tree before it is turned into an Executor chain:
// sequential-scan-with-equality-predicate to index-scan, sort+limit to
// top-N, and equi-join nested-loop-join to hash-join. Grounded on
// original_source/src/optimizer/{seqscan_as_indexscan,
// sort_limit_as_topn,nlj_as_hash_join}.cpp.
package rewrite

import (
	"coredb/execution"
	"coredb/storage/catalog"
	"coredb/storage/expr"
	"coredb/storage/tuple"
)

// PlanNode is one node of an unexecuted plan tree: a description of
// what an Executor will eventually do, cheap to inspect and rebuild,
// which is what the rewrite rules operate on instead of already-
// constructed Executors.
type PlanNode interface {
	Children() []PlanNode
	WithChildren(children []PlanNode) PlanNode
	OutputSchema() *tuple.Schema
}

// SeqScanPlan scans Table end to end, optionally filtered by Filter.
type SeqScanPlan struct {
	Schema *tuple.Schema
	Table  catalog.OID
	Filter expr.Expression
}

func (p *SeqScanPlan) Children() []PlanNode             { return nil }
func (p *SeqScanPlan) WithChildren([]PlanNode) PlanNode { return p }
func (p *SeqScanPlan) OutputSchema() *tuple.Schema      { return p.Schema }

// IndexScanPlan probes Index for ProbeKey's value.
type IndexScanPlan struct {
	Schema   *tuple.Schema
	Table    catalog.OID
	Index    catalog.OID
	ProbeKey expr.Constant
}

func (p *IndexScanPlan) Children() []PlanNode             { return nil }
func (p *IndexScanPlan) WithChildren([]PlanNode) PlanNode { return p }
func (p *IndexScanPlan) OutputSchema() *tuple.Schema      { return p.Schema }

// LimitPlan caps Child's output at N rows.
type LimitPlan struct {
	Schema *tuple.Schema
	Child  PlanNode
	N      int
}

func (p *LimitPlan) Children() []PlanNode { return []PlanNode{p.Child} }
func (p *LimitPlan) WithChildren(c []PlanNode) PlanNode {
	cp := *p
	cp.Child = c[0]
	return &cp
}
func (p *LimitPlan) OutputSchema() *tuple.Schema { return p.Schema }

// SortPlan orders Child's output by OrderBys.
type SortPlan struct {
	Schema   *tuple.Schema
	Child    PlanNode
	OrderBys []execution.OrderBy
}

func (p *SortPlan) Children() []PlanNode { return []PlanNode{p.Child} }
func (p *SortPlan) WithChildren(c []PlanNode) PlanNode {
	cp := *p
	cp.Child = c[0]
	return &cp
}
func (p *SortPlan) OutputSchema() *tuple.Schema { return p.Schema }

// TopNPlan is the fused form of a LimitPlan directly over a SortPlan.
type TopNPlan struct {
	Schema   *tuple.Schema
	Child    PlanNode
	OrderBys []execution.OrderBy
	N        int
}

func (p *TopNPlan) Children() []PlanNode { return []PlanNode{p.Child} }
func (p *TopNPlan) WithChildren(c []PlanNode) PlanNode {
	cp := *p
	cp.Child = c[0]
	return &cp
}
func (p *TopNPlan) OutputSchema() *tuple.Schema { return p.Schema }

// NestedLoopJoinPlan joins Left and Right under Predicate, evaluated
// with EvaluateJoin against one row from each side at a time.
type NestedLoopJoinPlan struct {
	Schema    *tuple.Schema
	Left      PlanNode
	Right     PlanNode
	Predicate expr.Expression
	JoinType  execution.JoinType
}

func (p *NestedLoopJoinPlan) Children() []PlanNode { return []PlanNode{p.Left, p.Right} }
func (p *NestedLoopJoinPlan) WithChildren(c []PlanNode) PlanNode {
	cp := *p
	cp.Left, cp.Right = c[0], c[1]
	return &cp
}
func (p *NestedLoopJoinPlan) OutputSchema() *tuple.Schema { return p.Schema }

// HashJoinPlan joins Left and Right by equality between LeftKeys and
// RightKeys, built by hashing Right once and probing it with Left.
type HashJoinPlan struct {
	Schema    *tuple.Schema
	Left      PlanNode
	Right     PlanNode
	LeftKeys  []expr.Expression
	RightKeys []expr.Expression
	JoinType  execution.JoinType
}

func (p *HashJoinPlan) Children() []PlanNode { return []PlanNode{p.Left, p.Right} }
func (p *HashJoinPlan) WithChildren(c []PlanNode) PlanNode {
	cp := *p
	cp.Left, cp.Right = c[0], c[1]
	return &cp
}
func (p *HashJoinPlan) OutputSchema() *tuple.Schema { return p.Schema }

// recurse rewrites every child of plan with rule, then rebuilds plan
// over the rewritten children — the shape every rule in this package
// shares with the original's own recurse-then-rewrite-this-node
// pattern.
func recurse(plan PlanNode, rule func(PlanNode) PlanNode) PlanNode {
	children := plan.Children()
	if len(children) == 0 {
		return plan
	}
	rewritten := make([]PlanNode, len(children))
	for i, c := range children {
		rewritten[i] = rule(c)
	}
	return plan.WithChildren(rewritten)
}
