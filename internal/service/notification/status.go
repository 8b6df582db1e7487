package notification

import (
	"html/template"

	"github.com/physiome/admin-api/internal/model"
)

// StatusInfo is the presentation of an appointment status in emails.
type StatusInfo struct {
	Color template.CSS
	Glyph string
	Label string
}

var statusInfo = map[model.AppointmentStatus]StatusInfo{
	model.AppointmentStatusPending:   {Color: "#f59e0b", Glyph: "⏳", Label: "Pending"},
	model.AppointmentStatusConfirmed: {Color: "#10b981", Glyph: "✅", Label: "Confirmed"},
	model.AppointmentStatusCancelled: {Color: "#ef4444", Glyph: "❌", Label: "Cancelled"},
	model.AppointmentStatusCompleted: {Color: "#3b82f6", Glyph: "🏁", Label: "Completed"},
}

// Classify maps a status to its color, glyph and label. Unknown statuses
// get a neutral style and keep their literal value as the label.
func Classify(status model.AppointmentStatus) StatusInfo {
	if info, ok := statusInfo[status]; ok {
		return info
	}
	return StatusInfo{Color: "#64748b", Glyph: "📋", Label: string(status)}
}
