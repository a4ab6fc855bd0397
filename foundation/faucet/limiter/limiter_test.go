package limiter

import (
	"testing"
	"time"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestAllowWithinWindow(t *testing.T) {
	t.Log("Given a cap of 3 requests per window.")
	{
		now := time.Now()
		l := New(time.Minute, 3)
		l.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			if !l.Allow("1.2.3.4") {
				t.Fatalf("\t%s\tShould allow request %d inside the cap.", failed, i+1)
			}
		}
		t.Logf("\t%s\tShould allow requests inside the cap.", success)

		if l.Allow("1.2.3.4") {
			t.Fatalf("\t%s\tShould reject the request over the cap.", failed)
		}
		t.Logf("\t%s\tShould reject the request over the cap.", success)

		if !l.Allow("5.6.7.8") {
			t.Fatalf("\t%s\tShould count other clients separately.", failed)
		}
		t.Logf("\t%s\tShould count other clients separately.", success)
	}
}

func TestWindowReset(t *testing.T) {
	t.Log("Given a window that expires.")
	{
		now := time.Now()
		l := New(time.Minute, 1)
		l.now = func() time.Time { return now }

		if !l.Allow("1.2.3.4") {
			t.Fatalf("\t%s\tShould allow the first request.", failed)
		}
		if l.Allow("1.2.3.4") {
			t.Fatalf("\t%s\tShould reject inside the window.", failed)
		}
		t.Logf("\t%s\tShould reject inside the window.", success)

		now = now.Add(time.Minute)

		if !l.Allow("1.2.3.4") {
			t.Fatalf("\t%s\tShould allow again after the window expires.", failed)
		}
		t.Logf("\t%s\tShould allow again after the window expires.", success)
	}
}

func TestSweep(t *testing.T) {
	t.Log("Given stale windows accumulated over time.")
	{
		now := time.Now()
		l := New(time.Minute, 1)
		l.now = func() time.Time { return now }

		l.Allow("1.2.3.4")
		l.Allow("5.6.7.8")

		now = now.Add(2 * time.Minute)
		l.Sweep()

		l.mu.Lock()
		remaining := len(l.windows)
		l.mu.Unlock()

		if remaining != 0 {
			t.Fatalf("\t%s\tShould drop expired windows: %d left.", failed, remaining)
		}
		t.Logf("\t%s\tShould drop expired windows.", success)
	}
}
