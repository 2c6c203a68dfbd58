package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// SpinnerProgressReporter renders the reconciliation stages on one spinner
// line. Chain goroutines report concurrently, so every method locks.
type SpinnerProgressReporter struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	stages  []stageInfo
	counter string
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
	Status    string
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr)
}

func newSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		out:     out,
		spinner: s,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != "" {
		r.startStage(event.Stage)
		r.counter = ""
	}
	if event.Total > 0 && event.Stage == "" {
		r.counter = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
	}

	if event.Stage == usecase.StageCompleted || !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}
	r.spinner.Suffix = " " + r.display()
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.print(color.New(color.FgRed), message)
}

func (r *SpinnerProgressReporter) print(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, message)
	if wasActive {
		r.spinner.Start()
	}
}

// Stages returns the stage names seen so far with their status.
func (r *SpinnerProgressReporter) Stages() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.stages))
	for _, s := range r.stages {
		out[s.Stage] = s.Status
	}
	return out
}

func (r *SpinnerProgressReporter) startStage(stage string) {
	now := time.Now()
	if n := len(r.stages); n > 0 && r.stages[n-1].Status == "running" {
		r.stages[n-1].EndTime = now
		r.stages[n-1].Status = "completed"
	}
	status := "running"
	if stage == usecase.StageCompleted {
		status = "completed"
	}
	r.stages = append(r.stages, stageInfo{Stage: stage, StartTime: now, EndTime: now, Status: status})
}

// display builds "✓ Deploy (1.2s) → ● Roles (3s) [1/3] arbitrum finished".
func (r *SpinnerProgressReporter) display() string {
	var b strings.Builder
	for i, stage := range r.stages {
		if stage.Stage == usecase.StageCompleted {
			continue
		}
		var icon string
		var stageColor *color.Color
		var duration string
		switch stage.Status {
		case "completed":
			icon = "✓"
			stageColor = color.New(color.FgGreen)
			duration = fmt.Sprintf(" (%s)", stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond))
		default:
			icon = "●"
			stageColor = color.New(color.FgYellow)
			duration = fmt.Sprintf(" (%s)", time.Since(stage.StartTime).Round(time.Second))
		}
		if i > 0 {
			b.WriteString(" → ")
		}
		fmt.Fprintf(&b, "%s %s%s", icon, stageColor.Sprint(stageName(stage.Stage)), duration)
	}
	b.WriteString(r.counter)
	return b.String()
}

func stageName(stage string) string {
	switch stage {
	case usecase.StageDeploy:
		return "Deploying"
	case usecase.StageRoles:
		return "Roles"
	case usecase.StagePointers:
		return "Chain pointers"
	case usecase.StageTopology:
		return "Plug wiring"
	}
	return stage
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
