package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gridflow/internal/storage"
)

// Voltage magnitudes outside [VoltageLow, VoltageHigh] pu are flagged.
const (
	VoltageLow  = 0.95
	VoltageHigh = 1.05
)

func RenderSummary(meta *storage.RunMetadata) string {
	status := StatusConverged.Render("converged")
	if meta.Provisional {
		status = StatusProvisional.Render("provisional: iteration limit reached")
	}

	rows := [][2]string{
		{"run", meta.ID},
		{"case", meta.Case},
		{"backend", meta.Backend},
		{"status", status},
		{"iterations", fmt.Sprintf("%d / %d", meta.Iterations, meta.MaxIters)},
		{"step error", fmt.Sprintf("%.3e (tol %.1e)", meta.FinalError, meta.Tolerance)},
		{"mismatch", formatMismatch(meta.Mismatch)},
		{"unknowns", fmt.Sprintf("%d (%d buses)", meta.Unknowns, meta.Buses)},
	}

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, [2]string{name, fmt.Sprintf("%.6g", meta.Metrics[name])})
	}

	var b strings.Builder
	b.WriteString(Title.Render("power flow"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-18s", r[0])))
		b.WriteString(MetricValue.Render(r[1]))
		b.WriteString("\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func formatMismatch(m float64) string {
	if m < 0 {
		return "undefined"
	}
	return fmt.Sprintf("%.3e", m)
}

// RenderBuses renders one row per bus.
func RenderBuses(buses []storage.BusRecord) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%6s  %10s  %10s  %10s  %10s", "BUS", "|V| pu", "ANGLE deg", "VR", "VI")))
	b.WriteString("\n")
	for _, r := range buses {
		vm := fmt.Sprintf("%10.6f", r.Vm)
		b.WriteString(fmt.Sprintf("%6d  %s  %10.4f  %10.6f  %10.6f\n",
			r.Bus, bandStyle(r.Vm).Render(vm), r.VaDeg, r.Vr, r.Vi))
	}
	return strings.TrimRight(b.String(), "\n")
}

func bandStyle(vm float64) lipgloss.Style {
	switch {
	case vm < VoltageLow:
		return BandLow
	case vm > VoltageHigh:
		return BandHigh
	default:
		return BandOK
	}
}
