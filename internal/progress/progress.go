// Package progress renders upload progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// DefaultInterval is the spinner's redraw period.
const DefaultInterval = 120 * time.Millisecond

// CompleteMessage is the line printed when a reporter stops.
const CompleteMessage = "All uploads complete!"

// Reporter observes an upload batch. Update must never block the caller.
type Reporter interface {
	Start()
	Update(name string, index, total int)
	Stop()
}

// Nop discards every update.
type Nop struct{}

func (Nop) Start()                  {}
func (Nop) Update(string, int, int) {}
func (Nop) Stop()                   {}

var frames = []byte{'|', '/', '-', '\\'}

type status struct {
	name  string
	index int
	total int
}

// Spinner redraws "<frame> Uploading <name> (<index>/<total>)" on a fixed
// interval from a background goroutine. Updates only store the latest status.
type Spinner struct {
	w        io.Writer
	interval time.Duration

	mu      sync.Mutex
	cur     status
	running bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner returns a stopped spinner writing to w. A non-positive interval
// uses DefaultInterval.
func NewSpinner(w io.Writer, interval time.Duration) *Spinner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Spinner{w: w, interval: interval}
}

// Start launches the redraw loop. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.stop)
}

func (s *Spinner) loop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			cur := s.cur
			s.mu.Unlock()
			if cur.total > 0 {
				fmt.Fprintf(s.w, "\r%c Uploading %s (%d/%d)", frames[frame%len(frames)], cur.name, cur.index, cur.total)
			}
			frame++
		}
	}
}

// Update records the file being worked on.
func (s *Spinner) Update(name string, index, total int) {
	s.mu.Lock()
	s.cur = status{name: name, index: index, total: total}
	s.mu.Unlock()
}

// Stop ends the redraw loop, waits for the last render to finish and prints
// CompleteMessage. Stopping a stopped spinner does nothing.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	last := s.cur
	s.mu.Unlock()

	s.wg.Wait()

	// clear the spinner line before the final message
	width := len(last.name) + 32
	fmt.Fprintf(s.w, "\r%s\r%s\n", strings.Repeat(" ", width), CompleteMessage)
}

// Bar is a Reporter backed by a pb progress bar with the current file as its
// prefix.
type Bar struct {
	w io.Writer

	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewBar returns a bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		return
	}
	b.bar = pb.Full.New(0).SetWriter(b.w).Start()
}

func (b *Bar) Update(name string, index, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	b.bar.SetTotal(int64(total))
	b.bar.SetCurrent(int64(index))
	b.bar.Set("prefix", name+" ")
}

func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	b.bar.Finish()
	b.bar = nil
	fmt.Fprintln(b.w, CompleteMessage)
}
