package log

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestLevelsAndPrefix(t *testing.T) {
	l, buf := capture(t, "levels_test")
	tests := []struct {
		log   func(string, ...any)
		level string
	}{
		{l.Infof, LevelInfo},
		{l.Warnf, LevelWarn},
		{l.Errorf, LevelError},
	}
	for _, tt := range tests {
		buf.Reset()
		tt.log("models=%d", 3)
		want := tt.level + " [levels_test>] models=3"
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)
	const name = "debug_per_service"
	DisableDebugFor(name)
	l, buf := capture(t, name)

	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug printed while disabled: %q", buf.String())
	}
	EnableDebugFor(name)
	defer DisableDebugFor(name)
	l.Debugf("shown")
	if !strings.Contains(buf.String(), "DEBUG [debug_per_service>] shown") {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
	if DebugEnabledFor("other_service") {
		t.Fatal("enabling one service leaked to another")
	}
}

func TestDebugGlobal(t *testing.T) {
	const name = "debug_global"
	l, buf := capture(t, name)
	SetGlobalDebug(true)
	defer SetGlobalDebug(false)
	l.Debugf("everywhere")
	if !strings.Contains(buf.String(), "everywhere") {
		t.Fatalf("expected global debug output, got %q", buf.String())
	}
}

func TestSetOutputUpdatesExisting(t *testing.T) {
	l := ForService("existing_logger")
	buf := &bytes.Buffer{}
	SetOutput(buf)
	l.Infof("redirected")
	if !strings.Contains(buf.String(), "redirected") {
		t.Fatalf("existing logger kept old writer")
	}
	if ForService("existing_logger") != l {
		t.Fatal("ForService must return the same logger")
	}
	if ForService("").Name() != "unknown" {
		t.Fatal("empty name should map to unknown")
	}
}
