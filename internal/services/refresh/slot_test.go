package refresh

import (
	"sync"
	"testing"
)

func TestSlot_LatestWins(t *testing.T) {
	s := NewSlot[int]()
	s.Publish(1)
	s.Publish(2)
	s.Publish(3)

	if got := <-s.C(); got != 3 {
		t.Errorf("received %d, want 3", got)
	}
	select {
	case v := <-s.C():
		t.Errorf("slot should be empty, got %d", v)
	default:
	}
}

func TestSlot_ConcurrentPublishNeverBlocks(t *testing.T) {
	s := NewSlot[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Publish(i)
		}(i)
	}
	wg.Wait()

	<-s.C()
	select {
	case <-s.C():
		t.Error("slot holds more than one value")
	default:
	}
}
