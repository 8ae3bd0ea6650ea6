package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DebugGate(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		expectLog bool
	}{
		{name: "debug enabled", debug: true, expectLog: true},
		{name: "debug disabled", debug: false, expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, "[test]", tt.debug)
			l.Debug("probing %s", "tags")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] DEBUG: probing tags")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "[dispatch]", false)

	l.Info("running %s", "deploy")
	l.Warn("tolerated failure")
	l.Error("boom")

	out := buf.String()
	assert.Contains(t, out, "[dispatch] running deploy")
	assert.Contains(t, out, "[dispatch] WARN: tolerated failure")
	assert.Contains(t, out, "[dispatch] ERROR: boom")
}

func TestNew_NoPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", false)

	l.Warn("careful")
	assert.Contains(t, buf.String(), "WARN: careful")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	l := FromEnv("[x]").(*stdLogger)
	assert.True(t, l.debug)

	t.Setenv(DebugEnv, "")
	l = FromEnv("[x]").(*stdLogger)
	assert.False(t, l.debug)
}

func TestNoop(t *testing.T) {
	l := Noop()
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()
	l.Info("connected to %s", "admin1")
	l.Warn("tolerated exit %d", 1)

	assert.Len(t, l.Messages, 2)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("error"))
	assert.True(t, l.Contains("admin1"))
	assert.False(t, l.Contains("admin2"))
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)
	Default().Info("hello")

	assert.True(t, buf.Contains("hello"))
}
