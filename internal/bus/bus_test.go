package bus

import (
	"testing"
	"time"
)

func TestEmitStampsTime(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("posting.", 4)
	defer cancel()

	before := time.Now()
	b.Emit(KindStatusChanged, 42)

	select {
	case evt := <-ch:
		if evt.Kind != KindStatusChanged {
			t.Errorf("kind = %q, want %q", evt.Kind, KindStatusChanged)
		}
		if evt.ID == "" {
			t.Error("event id is empty")
		}
		if evt.Timestamp.Before(before) {
			t.Errorf("timestamp %v before emit %v", evt.Timestamp, before)
		}
		if evt.Payload.(int) != 42 {
			t.Errorf("payload = %v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("session.", 4)
	defer cancel()

	b.Emit(KindPostingSaved, nil)
	b.Emit(KindLoggedOut, nil)

	evt := <-ch
	if evt.Kind != KindLoggedOut {
		t.Errorf("kind = %q, want %q", evt.Kind, KindLoggedOut)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event %v", evt)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("", 4)
	cancel()
	cancel()

	b.Emit(KindRefreshed, nil)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
}

func TestFullBufferDropsEvent(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("sync.", 1)
	defer cancel()

	b.Emit(KindRefreshed, 1)
	b.Emit(KindRefreshFailed, 2)

	if evt := <-ch; evt.Payload.(int) != 1 {
		t.Errorf("payload = %v, want 1", evt.Payload)
	}
	select {
	case evt := <-ch:
		t.Errorf("second event should have been dropped, got %v", evt)
	default:
	}
}

func TestCloseEndsSubscribers(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("", 1)
	b.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after bus close")
	}
	late, _ := b.Subscribe("", 1)
	if _, ok := <-late; ok {
		t.Error("subscribe after close should return a closed channel")
	}
	b.Emit(KindRefreshed, nil)
}
