package domain

import (
	"fmt"
	"strconv"
)

const (
	NoDataText = "No data found"

	// TooltipOffset is the distance in pixels between the pointer and the tooltip corner.
	TooltipOffset = 10
)

// FormatTooltipText renders "{area}, {state}: {pct}%" or NoDataText for a nil record.
func FormatTooltipText(r *EducationRecord) string {
	if r == nil {
		return NoDataText
	}
	return fmt.Sprintf("%s, %s: %s%%", r.AreaName, r.State, FormatPercent(r.BachelorsOrHigher))
}

// FormatPercent prints v with the fewest digits that round-trip, so 42 stays "42".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HoverEvent is what a pointer handler sees: page coordinates and the hovered county.
type HoverEvent struct {
	PageX   float64
	PageY   float64
	Feature CountyFeature
}

// Tooltip is the single tooltip element toggled by hover handlers.
type Tooltip struct {
	Visible   bool
	Left      float64
	Top       float64
	Text      string
	Education string // data-education attribute; empty when the county has no record
}

// Show handles mouseover.
func (t *Tooltip) Show(ev HoverEvent) {
	t.Visible = true
	t.Left = ev.PageX + TooltipOffset
	t.Top = ev.PageY + TooltipOffset
	t.Text = FormatTooltipText(ev.Feature.Education)
	t.Education = ""
	if v, ok := ev.Feature.EducationValue(); ok {
		t.Education = FormatPercent(v)
	}
}

// Hide handles mouseout. Position and text are left as they were.
func (t *Tooltip) Hide() {
	t.Visible = false
}

// Class returns the CSS class the tooltip element carries in its current state.
func (t *Tooltip) Class() string {
	if t.Visible {
		return ""
	}
	return "tooltip--hidden"
}
