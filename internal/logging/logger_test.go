package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debug     bool
		wantDebug bool
		wantInfo  bool
	}{
		{level: "", wantInfo: true},
		{level: "DEBUG", wantDebug: true, wantInfo: true},
		{level: "warn"},
		{level: "error"},
		{level: "bogus", wantInfo: true},
		{level: "error", debug: true, wantDebug: true, wantInfo: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.debug, tt.level)
			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, log.Enabled(context.Background(), slog.LevelInfo))
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "info").Info("deployed", "chain", "arbitrum-sepolia", "contract", "Socket")

	out := buf.String()
	assert.NotContains(t, out, "time=")
	assert.Contains(t, out, `level=INFO msg=deployed chain=arbitrum-sepolia contract=Socket`)
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/deploy_contracts.go", shortPath("/home/ci/src/socket-deployer/internal/usecase/deploy_contracts.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
