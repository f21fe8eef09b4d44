package execution

import (
	"testing"

	"coredb/storage/tuple"
)

func TestTopNMatchesSortThenLimit(t *testing.T) {
	ctx, _ := newTestContext(t)
	rows := []*tuple.Tuple{pairRow(3, 1), pairRow(1, 2), pairRow(2, 2), pairRow(2, 1), pairRow(1, 1)}

	sortChild := newValuesExecutor(pairSchema(), rows)
	srt := NewSortExecutor(ctx, sortChild, pairOrderBys())
	sorted := drain(t, srt)

	topChild := newValuesExecutor(pairSchema(), rows)
	top := NewTopNExecutor(ctx, topChild, pairOrderBys(), 3)
	topRows := drain(t, top)

	want := make([][2]int32, 0, 3)
	for _, r := range sorted[:3] {
		want = append(want, [2]int32{r.GetValue(0).AsInteger(), r.GetValue(1).AsInteger()})
	}
	assertPairs(t, topRows, want)
}
