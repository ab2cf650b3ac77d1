package tools

import (
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// SystemToolsetName is the toolset identifier constant.
const SystemToolsetName = "system"

// CurrentTimeInput defines input for the currentTime tool (none needed).
type CurrentTimeInput struct{}

// SystemToolset provides local system tools that need no API keys.
// It gives the curriculum a tool-calling exercise that works before any
// external account is configured.
type SystemToolset struct {
	logger *slog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewSystemToolset creates a SystemToolset.
func NewSystemToolset(logger *slog.Logger) *SystemToolset {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemToolset{logger: logger, now: time.Now}
}

// Name returns the toolset identifier.
func (st *SystemToolset) Name() string {
	return SystemToolsetName
}

// Tools returns all system tools.
func (st *SystemToolset) Tools() ([]Tool, error) {
	return []Tool{
		NewTool(
			"currentTime",
			"Get the current local date and time. "+
				"Use this when the user asks what time or day it is, or when an answer depends on the current date.",
			false,
			st.CurrentTime,
		),
	}, nil
}

// CurrentTime returns the current system date and time.
func (st *SystemToolset) CurrentTime(_ *ai.ToolContext, _ CurrentTimeInput) (Result, error) {
	now := st.now()
	st.logger.Debug("currentTime called")
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"time":      now.Format("2006-01-02 15:04:05"),
			"weekday":   now.Weekday().String(),
			"timestamp": now.Unix(),
			"iso8601":   now.Format(time.RFC3339),
		},
	}, nil
}
