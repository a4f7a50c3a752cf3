package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
)

type styles struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	free     lipgloss.Style
	occupied lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	dim      lipgloss.Style
}

// newStyles binds styles to out so colour is only emitted for terminals.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		heading:  r.NewStyle().Bold(true).Underline(true),
		free:     r.NewStyle().Foreground(lipgloss.Color("42")),
		occupied: r.NewStyle().Foreground(lipgloss.Color("214")),
		success:  r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		failure:  r.NewStyle().Foreground(lipgloss.Color("196")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// renderStatus lists every slot of every tier in ascending order.
func (st styles) renderStatus(view service.StatusView) string {
	var b strings.Builder
	for _, summary := range view.Tiers {
		b.WriteString("\n")
		b.WriteString(st.heading.Render(summary.Tier.Label() + " Slots:"))
		b.WriteString(" ")
		b.WriteString(st.dim.Render(fmt.Sprintf("%d/%d free", summary.Free, summary.Capacity)))
		b.WriteString("\n")
		for _, slot := range view.Slots {
			if slot.Tier != summary.Tier {
				continue
			}
			b.WriteString(st.renderSlot(slot))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (st styles) renderSlot(slot domain.SlotState) string {
	label := fmt.Sprintf("Slot %d: ", slot.Slot)
	if !slot.Occupied() {
		return label + st.free.Render("Free")
	}
	return label + st.occupied.Render(fmt.Sprintf("Occupied by %s (Token: %s)",
		slot.Occupancy.VehicleID, slot.Occupancy.Token))
}
