package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// NopSink is a no-op implementation of ProgressSink
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() usecase.ProgressSink {
	return &NopSink{}
}

// OnProgress does nothing with progress events
func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

// Info does nothing with info messages
func (n *NopSink) Info(message string) {}

// Error does nothing with error messages
func (n *NopSink) Error(message string) {}

// LineSink prints stage changes as plain lines, for non-interactive runs
// where a spinner would garble CI logs.
type LineSink struct {
	out io.Writer
}

// NewLineSink creates a new LineSink
func NewLineSink(out io.Writer) *LineSink {
	return &LineSink{out: out}
}

// OnProgress prints stage transitions
func (l *LineSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Stage == "" || event.Message == "" {
		return
	}
	fmt.Fprintf(l.out, "==> %s\n", event.Message)
}

// Info prints message
func (l *LineSink) Info(message string) {
	fmt.Fprintln(l.out, message)
}

// Error prints message
func (l *LineSink) Error(message string) {
	fmt.Fprintln(l.out, "error: "+message)
}

// Ensure NopSink implements ProgressSink
var _ usecase.ProgressSink = (*NopSink)(nil)
var _ usecase.ProgressSink = (*LineSink)(nil)
