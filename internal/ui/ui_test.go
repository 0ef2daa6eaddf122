package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	quiet := newLogger(&buf, false)
	quiet.Debugf("hidden %d", 1)
	quiet.Infof("shown %d", 2)
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown 2") {
		t.Errorf("non-debug output = %q", out)
	}

	buf.Reset()
	loud := newLogger(&buf, true)
	loud.With("page", 3).Debugf("visible")
	if out := buf.String(); !strings.Contains(out, "visible") || !strings.Contains(out, "page=3") {
		t.Errorf("debug output = %q", out)
	}
}

func TestProgressHandle(t *testing.T) {
	var buf bytes.Buffer
	pm := newProgressManager(&buf)

	h := pm.Register("Ch.1")
	h.SetTotal(3)
	h.Update(2, 3, 2048)
	if got := h.bytes.Load(); got != 2048 {
		t.Errorf("bytes = %d", got)
	}

	h.MarkDone()
	h.Update(0, 10, 0)
	if got := h.total.Load(); got != 3 {
		t.Errorf("total changed after MarkDone: %d", got)
	}

	f := pm.Register("Ch.2")
	f.SetTotal(5)
	f.Fail()

	pm.Close()
}
