package metrics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestCollector_Commands(t *testing.T) {
	c := New()

	c.CommandSent(2 * time.Second)
	c.CommandSent(180 * time.Second)

	if c.CommandsSent() != 2 {
		t.Errorf("commands = %d, want 2", c.CommandsSent())
	}
	if c.WaitTime() != 182*time.Second {
		t.Errorf("wait = %v, want 182s", c.WaitTime())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
}

func TestCollector_WarningsAndErrors(t *testing.T) {
	c := New()

	c.RecordWarning()
	c.RecordError("first error")
	c.RecordError("second error")

	if c.WarningCount() != 1 {
		t.Errorf("warnings = %d, want 1", c.WarningCount())
	}
	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	if got := c.Snapshot().LastErrorMessage; got != "second error" {
		t.Errorf("last error = %q, want %q", got, "second error")
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.CommandSent(time.Second)
	c.BytesReceived(1)
	c.BytesSent(1)
	c.PollResult(true)
	c.StepStarted("login")
	c.RecordWarning()
	c.RecordError("x")

	if c.CommandsSent() != 0 || c.TotalBytesIn() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should report zeros")
	}
	if c.JSON() == "" {
		t.Error("JSON on nil collector should still render")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.BytesReceived(10)
			c.CommandSent(time.Millisecond)
		}()
	}
	wg.Wait()

	if c.TotalBytesIn() != 500 {
		t.Errorf("bytes in = %d, want 500", c.TotalBytesIn())
	}
	if c.CommandsSent() != 50 {
		t.Errorf("commands = %d, want 50", c.CommandsSent())
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.StepStarted("audit")
	c.PollResult(true)
	c.PollResult(false)

	var snap Snapshot
	if err := json.Unmarshal([]byte(c.JSON()), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap.LastStep != "audit" {
		t.Errorf("last step = %q, want audit", snap.LastStep)
	}
	if snap.PollsMatched != 1 || snap.PollsExpired != 1 {
		t.Errorf("polls = %d/%d, want 1/1", snap.PollsMatched, snap.PollsExpired)
	}
}
