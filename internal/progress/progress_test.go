package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_RendersLatestStatus(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	s := NewSpinner(out, 5*time.Millisecond)

	s.Start()
	s.Update("docs/a.txt", 1, 3)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "docs/a.txt (1/3)")
	}, 2*time.Second, 5*time.Millisecond)

	s.Update("docs/b.txt", 2, 3)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "docs/b.txt (2/3)")
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.True(t, strings.HasSuffix(out.String(), CompleteMessage+"\n"))
}

func TestSpinner_NoOutputAfterStop(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	s := NewSpinner(out, time.Millisecond)
	s.Start()
	s.Update("x", 1, 1)
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	snapshot := out.String()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, snapshot, out.String())
}

func TestSpinner_FramesRotate(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	s := NewSpinner(out, time.Millisecond)
	s.Start()
	s.Update("f", 1, 1)
	require.Eventually(t, func() bool {
		o := out.String()
		return strings.Contains(o, "| Uploading") && strings.Contains(o, "/ Uploading") &&
			strings.Contains(o, "- Uploading") && strings.Contains(o, `\ Uploading`)
	}, 2*time.Second, 2*time.Millisecond)
	s.Stop()
}

func TestSpinner_StopIdempotent(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	s := NewSpinner(out, 0)
	s.Stop()
	assert.Empty(t, out.String(), "stopping a spinner that never started prints nothing")

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	assert.Equal(t, 1, strings.Count(out.String(), CompleteMessage))
}

func TestSpinner_UpdateNeverBlocks(t *testing.T) {
	t.Parallel()
	s := NewSpinner(&syncBuffer{}, time.Hour)
	s.Start()
	defer s.Stop()

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 10000; i++ {
			s.Update("f", i, 10000)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update blocked")
	}
}

func TestBar_Lifecycle(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	b := NewBar(out)
	b.Update("ignored before start", 1, 1)

	b.Start()
	b.Update("a.txt", 1, 2)
	b.Update("b.txt", 2, 2)
	b.Stop()
	b.Stop()

	assert.Equal(t, 1, strings.Count(out.String(), CompleteMessage))
}

func TestNop(t *testing.T) {
	t.Parallel()
	var r Reporter = Nop{}
	r.Start()
	r.Update("x", 1, 1)
	r.Stop()
}
