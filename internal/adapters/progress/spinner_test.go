package progress

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

func TestSpinnerProgressReporter_Stages(t *testing.T) {
	var out bytes.Buffer
	r := newSpinnerProgressReporter(&out)
	ctx := context.Background()

	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageDeploy, Message: "Deploying contracts", Spinner: true})
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.OnProgress(ctx, usecase.ProgressEvent{Current: i, Total: 3, Message: "chain finished", Spinner: true})
		}(i)
	}
	wg.Wait()
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageRoles, Message: "Reconciling roles", Spinner: true})
	r.Info("granted")
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageCompleted, Message: "Done"})

	assert.Equal(t, map[string]string{
		usecase.StageDeploy:    "completed",
		usecase.StageRoles:     "completed",
		usecase.StageCompleted: "completed",
	}, r.Stages())
	assert.False(t, r.spinner.Active())
	assert.Contains(t, out.String(), "granted")
}

func TestLineSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewLineSink(&out)
	ctx := context.Background()

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageDeploy, Message: "Deploying contracts"})
	sink.OnProgress(ctx, usecase.ProgressEvent{Current: 1, Total: 2, Message: "arbitrum finished"})
	sink.Error("boom")

	assert.Equal(t, "==> Deploying contracts\nerror: boom\n", out.String())
}
