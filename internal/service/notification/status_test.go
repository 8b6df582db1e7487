package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/physiome/admin-api/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status model.AppointmentStatus
		want   StatusInfo
	}{
		{model.AppointmentStatusPending, StatusInfo{Color: "#f59e0b", Glyph: "⏳", Label: "Pending"}},
		{model.AppointmentStatusConfirmed, StatusInfo{Color: "#10b981", Glyph: "✅", Label: "Confirmed"}},
		{model.AppointmentStatusCancelled, StatusInfo{Color: "#ef4444", Glyph: "❌", Label: "Cancelled"}},
		{model.AppointmentStatusCompleted, StatusInfo{Color: "#3b82f6", Glyph: "🏁", Label: "Completed"}},
		{"rescheduled", StatusInfo{Color: "#64748b", Glyph: "📋", Label: "rescheduled"}},
		{"", StatusInfo{Color: "#64748b", Glyph: "📋", Label: ""}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status))
		})
	}
}
