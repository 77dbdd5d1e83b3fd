// Package render draws schedules as text timelines, one row per machine.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

type ColorMode string

const (
	ColorByProduct   ColorMode = "product"
	ColorByOrder     ColorMode = "order"
	ColorByMachine   ColorMode = "machine"
	ColorByOperation ColorMode = "operation"

	DefaultWidth = 100
	timeLayout   = "Jan 02 15:04"
)

// MachineRows is the fixed top-to-bottom row order of the reference plant.
var MachineRows = []string{
	"Mixing/Processing",
	"Transfer/Holding",
	"Filling/Capping",
	"Finishing/QC",
}

var (
	orderPalette = []string{
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
		"#aec7e8", "#ffbb78", "#98df8a", "#ff9896", "#c5b0d5",
		"#c49c94", "#f7b6d2", "#c7c7c7", "#dbdb8d", "#9edae5",
	}
	productPalette = []string{"#8e44ad", "#e74c3c", "#3498db", "#27ae60", "#f39c12"}
)

type Options struct {
	Width int
	Color ColorMode
}

type Renderer struct {
	r *lipgloss.Renderer

	header lipgloss.Style
	label  lipgloss.Style
	axis   lipgloss.Style
	muted  lipgloss.Style
}

// New returns a renderer whose color support is detected from out. Writers
// that are not terminals get plain text.
func New(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		r:      r,
		header: r.NewStyle().Bold(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		axis:   r.NewStyle().Foreground(lipgloss.Color("#666666")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#999999")),
	}
}

// Plain returns a renderer that never emits escape codes.
func Plain() *Renderer {
	return New(io.Discard)
}

// Timeline renders ops as one bar row per machine. Each bar starts with the
// numeric part of its order id.
func (r *Renderer) Timeline(ops []domain.Operation, opts Options) string {
	if len(ops) == 0 {
		return r.muted.Render("No operations match filters") + "\n"
	}

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	if opts.Color == "" {
		opts.Color = ColorByProduct
	}

	from, to := span(ops)
	total := to.Sub(from)
	rows := rowNames(ops)
	colors := colorMap(ops, opts.Color)

	labelWidth := 0
	for _, name := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(name))
	}
	labelStyle := r.label.Width(labelWidth + 1)

	var b strings.Builder
	orders := distinct(ops, func(op domain.Operation) string { return op.OrderID })
	b.WriteString(r.header.Render(fmt.Sprintf("%s → %s  (%d orders)",
		from.Format(timeLayout), to.Format(timeLayout), len(orders))))
	b.WriteString("\n")

	for _, name := range rows {
		var rowOps []domain.Operation
		for _, op := range ops {
			if op.MachineName == name {
				rowOps = append(rowOps, op)
			}
		}

		b.WriteString(labelStyle.Render(name))
		b.WriteString(r.axis.Render("│"))
		b.WriteString(r.bar(rowOps, from, total, width, opts.Color, colors))
		b.WriteString(r.axis.Render("│"))
		b.WriteString("\n")
	}

	return b.String()
}

// bar lays out one machine row. Later operations win cells they share with
// earlier ones after rounding.
func (r *Renderer) bar(ops []domain.Operation, from time.Time, total time.Duration, width int, mode ColorMode, colors map[string]string) string {
	cells := make([]int, width)
	for i := range cells {
		cells[i] = -1
	}

	sorted := append([]domain.Operation(nil), ops...)
	domain.SortByStart(sorted)

	for i, op := range sorted {
		c0, c1 := columns(op, from, total, width)
		for c := c0; c < c1; c++ {
			cells[c] = i
		}
	}

	var b strings.Builder
	for c := 0; c < width; {
		idx := cells[c]
		end := c
		for end < width && cells[end] == idx {
			end++
		}
		n := end - c
		if idx < 0 {
			b.WriteString(strings.Repeat(" ", n))
		} else {
			op := sorted[idx]
			style := r.r.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(colors[colorKey(op, mode)]))
			b.WriteString(style.Render(segment(shortLabel(op.OrderID), n)))
		}
		c = end
	}
	return b.String()
}

func columns(op domain.Operation, from time.Time, total time.Duration, width int) (int, int) {
	if total <= 0 {
		return 0, width
	}
	c0 := int(math.Floor(float64(op.Start.Sub(from)) * float64(width) / float64(total)))
	c1 := int(math.Ceil(float64(op.End.Sub(from)) * float64(width) / float64(total)))

	c0 = min(max(c0, 0), width-1)
	c1 = min(max(c1, c0+1), width)
	return c0, c1
}

func segment(label string, n int) string {
	if len(label) > n {
		return strings.Repeat("█", n)
	}
	return label + strings.Repeat("=", n-len(label))
}

func shortLabel(orderID string) string {
	if i := strings.LastIndex(orderID, "-"); i >= 0 && i < len(orderID)-1 {
		return orderID[i+1:]
	}
	return orderID
}

func span(ops []domain.Operation) (time.Time, time.Time) {
	from, to := ops[0].Start, ops[0].End
	for _, op := range ops[1:] {
		if op.Start.Before(from) {
			from = op.Start
		}
		if op.End.After(to) {
			to = op.End
		}
	}
	return from, to
}

// rowNames returns the known plant rows first, then any other machines by name.
func rowNames(ops []domain.Operation) []string {
	present := make(map[string]bool)
	for _, op := range ops {
		present[op.MachineName] = true
	}

	var rows []string
	for _, name := range MachineRows {
		if present[name] {
			rows = append(rows, name)
			delete(present, name)
		}
	}

	var extra []string
	for name := range present {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(rows, extra...)
}

func colorKey(op domain.Operation, mode ColorMode) string {
	switch mode {
	case ColorByOrder:
		return op.OrderID
	case ColorByMachine:
		return op.MachineName
	case ColorByOperation:
		return string(op.Kind)
	default:
		return op.Product
	}
}

func colorMap(ops []domain.Operation, mode ColorMode) map[string]string {
	keys := distinct(ops, func(op domain.Operation) string { return colorKey(op, mode) })
	sort.Strings(keys)

	palette := orderPalette
	if mode == ColorByProduct {
		palette = productPalette
	}

	colors := make(map[string]string, len(keys))
	for i, k := range keys {
		colors[k] = palette[i%len(palette)]
	}
	return colors
}

func distinct(ops []domain.Operation, key func(domain.Operation) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, op := range ops {
		k := key(op)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
