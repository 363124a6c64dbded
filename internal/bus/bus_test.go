package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New[int]()
	ch, unsub := b.Subscribe()
	defer unsub()

	n := b.Publish(42)
	assert.Equal(t, 1, n)

	select {
	case v := <-ch:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published value")
	}
}

func TestBus_SubscribeFromNowMissesPriorPublishes(t *testing.T) {
	b := New[int]()
	b.Publish(1)

	ch, unsub := b.Subscribe()
	defer unsub()

	select {
	case v := <-ch:
		t.Fatalf("subscriber should not see pre-subscription value, got %d", v)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New[int]()
	_, unsub := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())
	unsub()
	assert.Equal(t, 0, b.Subscribers())
}

func TestBus_DropsOldestWhenFull(t *testing.T) {
	b := New[int]()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < Capacity+5; i++ {
		b.Publish(i)
	}

	assert.Len(t, ch, Capacity)
	first := <-ch
	assert.Greater(t, first, 0, "oldest values should have been dropped to make room")
}

func TestBus_PublishReturnsSubscriberCount(t *testing.T) {
	b := New[string]()
	assert.Equal(t, 0, b.Publish("no subscribers yet"))

	_, unsub1 := b.Subscribe()
	_, unsub2 := b.Subscribe()
	defer unsub1()
	defer unsub2()

	assert.Equal(t, 2, b.Publish("hello"))
}
