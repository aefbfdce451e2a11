package notify

import "testing"

func TestHub_PublishOrder(t *testing.T) {
	var h Hub[string]
	var got []string

	h.Subscribe(func(e string) { got = append(got, "a:"+e) })
	h.Subscribe(func(e string) { got = append(got, "b:"+e) })

	h.Publish("x")

	if len(got) != 2 || got[0] != "a:x" || got[1] != "b:x" {
		t.Errorf("delivery = %v, want [a:x b:x]", got)
	}
}

func TestHub_Cancel(t *testing.T) {
	var h Hub[int]
	calls := 0

	cancel := h.Subscribe(func(int) { calls++ })
	h.Publish(1)
	cancel()
	cancel()
	h.Publish(2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHub_SubscribeFromCallback(t *testing.T) {
	var h Hub[int]
	inner := 0

	h.Subscribe(func(int) {
		h.Subscribe(func(int) { inner++ })
	})

	h.Publish(1)
	if inner != 0 {
		t.Errorf("subscriber added during publish ran early: %d", inner)
	}

	h.Publish(2)
	if inner != 1 {
		t.Errorf("inner calls = %d, want 1", inner)
	}
}
