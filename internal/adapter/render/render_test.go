package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

var t0 = time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC)

func op(order, product, machine, name string, startH, endH int) domain.Operation {
	return domain.Operation{
		OrderID:     order,
		Machine:     machine,
		MachineName: name,
		Product:     product,
		Start:       t0.Add(time.Duration(startH) * time.Hour),
		End:         t0.Add(time.Duration(endH) * time.Hour),
	}
}

func sampleOps() []domain.Operation {
	return []domain.Operation{
		op("ORD-003", "HAIR", "MIX_1", "Mixing/Processing", 4, 6),
		op("ORD-001", "SHAMPOO", "MIX_1", "Mixing/Processing", 0, 2),
		op("ORD-001", "SHAMPOO", "FIN_1", "Finishing/QC", 2, 3),
		op("ORD-002", "HAIR", "MIX_1", "Mixing/Processing", 2, 4),
		op("ORD-002", "HAIR", "FIN_1", "Finishing/QC", 4, 5),
	}
}

func orderIDs(ops []domain.Operation) []string {
	var ids []string
	seen := map[string]bool{}
	for _, o := range ops {
		if !seen[o.OrderID] {
			seen[o.OrderID] = true
			ids = append(ids, o.OrderID)
		}
	}
	return ids
}

func TestFilterKeepsFirstOrdersByStart(t *testing.T) {
	got := Filter{MaxOrders: 2}.Apply(sampleOps())
	assert.Equal(t, []string{"ORD-001", "ORD-002"}, orderIDs(got))
	assert.Len(t, got, 4)
	assert.True(t, got[0].Start.Equal(t0))
}

func TestFilterByProductAndMachine(t *testing.T) {
	got := Filter{Products: []string{"HAIR"}}.Apply(sampleOps())
	assert.Equal(t, []string{"ORD-002", "ORD-003"}, orderIDs(got))

	got = Filter{Machines: []string{"FIN_1"}}.Apply(sampleOps())
	assert.Equal(t, []string{"ORD-001", "ORD-002"}, orderIDs(got))

	got = Filter{Machines: []string{"Mixing/Processing"}, MaxOrders: 1}.Apply(sampleOps())
	require.Len(t, got, 1)
	assert.Equal(t, "ORD-001", got[0].OrderID)
}

func TestFilterDefaultsToTwentyOrders(t *testing.T) {
	var ops []domain.Operation
	for i := 0; i < 30; i++ {
		ops = append(ops, op(strings.Repeat("X", i+1), "P", "M", "Mixing/Processing", i, i+1))
	}
	assert.Len(t, Filter{}.Apply(ops), DefaultMaxOrders)
}

func TestTimelinePlainRows(t *testing.T) {
	out := Plain().Timeline(sampleOps(), Options{Width: 60})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "Nov 03 06:00 → Nov 03 12:00")
	assert.Contains(t, lines[0], "(3 orders)")
	assert.True(t, strings.HasPrefix(lines[1], "Mixing/Processing"))
	assert.True(t, strings.HasPrefix(lines[2], "Finishing/QC"))

	// MIX row: 0-2h, 2-4h, 4-6h over a 6h span, 20 cells each
	bar := lines[1][strings.Index(lines[1], "│")+len("│"):]
	bar = strings.TrimSuffix(bar, "│")
	assert.Equal(t, "001"+strings.Repeat("=", 17)+"002"+strings.Repeat("=", 17)+"003"+strings.Repeat("=", 17), bar)
	assert.NotContains(t, out, "\x1b[")
}

func TestTimelineEmpty(t *testing.T) {
	assert.Equal(t, "No operations match filters\n", Plain().Timeline(nil, Options{}))
}

func TestRowNamesPutsPlantOrderFirst(t *testing.T) {
	ops := []domain.Operation{
		{MachineName: "Zeta"},
		{MachineName: "Finishing/QC"},
		{MachineName: "Alpha"},
		{MachineName: "Mixing/Processing"},
	}
	assert.Equal(t, []string{"Mixing/Processing", "Finishing/QC", "Alpha", "Zeta"}, rowNames(ops))
}

func TestSegmentAndLabel(t *testing.T) {
	assert.Equal(t, "007==", segment(shortLabel("ORD-007"), 5))
	assert.Equal(t, "██", segment(shortLabel("ORD-007"), 2))
	assert.Equal(t, "PLAIN", shortLabel("PLAIN"))
}
