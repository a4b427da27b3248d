package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/rag/schema"
)

func turn(i int) schema.Turn {
	return schema.Turn{
		Question: fmt.Sprintf("question %d", i),
		Answer:   fmt.Sprintf("answer %d", i),
	}
}

func TestWindow_EvictsOldestBeyondCapacity(t *testing.T) {
	w := NewWindow(3)

	for i := 1; i <= 4; i++ {
		w.Append(turn(i))
	}

	turns := w.Turns()
	require.Len(t, turns, 3)
	// The first inserted turn is gone, the remaining three are the most
	// recent, oldest first.
	assert.Equal(t, "question 2", turns[0].Question)
	assert.Equal(t, "question 3", turns[1].Question)
	assert.Equal(t, "question 4", turns[2].Question)
}

func TestWindow_ZeroCapacityKeepsNothing(t *testing.T) {
	w := NewWindow(0)
	w.Append(turn(1))
	assert.Zero(t, w.Len())
}

func TestWindow_TurnsReturnsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Append(turn(1))

	turns := w.Turns()
	turns[0].Question = "mutated"
	assert.Equal(t, "question 1", w.Turns()[0].Question)
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := NewStore(2)

	s.Append("alpha", turn(1))
	s.Append("beta", turn(2))

	require.Len(t, s.Turns("alpha"), 1)
	require.Len(t, s.Turns("beta"), 1)
	assert.Equal(t, "question 1", s.Turns("alpha")[0].Question)
	assert.Equal(t, "question 2", s.Turns("beta")[0].Question)
	assert.Empty(t, s.Turns("unknown"))
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(2)
	s.Append("alpha", turn(1))
	s.Clear("alpha")
	assert.Empty(t, s.Turns("alpha"))
}

func TestStore_ConcurrentSessions(t *testing.T) {
	s := NewStore(4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := fmt.Sprintf("session-%d", i)
			for j := 0; j < 10; j++ {
				s.Append(session, turn(j))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		assert.Len(t, s.Turns(fmt.Sprintf("session-%d", i)), 4)
	}
}
