package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmit(t *testing.T) {
	set := NewSet()
	require.True(t, set.Admit("/jan-kowalski"))
	require.False(t, set.Admit("/jan-kowalski"))
	require.True(t, set.Admit("/anna-nowak"))
	require.True(t, set.Admit(""))
	require.False(t, set.Admit(""))
	require.Equal(t, 3, set.Len())
}

func TestAdmitConcurrent(t *testing.T) {
	set := NewSet()
	var admitted atomic.Int64

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if set.Admit(fmt.Sprintf("/creator-%d", i)) {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(100), admitted.Load())
	require.Equal(t, 100, set.Len())
}
