package app

import (
	"bufio"
	"context"
	"io"
	"time"
)

// Run is the event loop: one goroutine multiplexing local input, inbound
// network events, and the periodic discovery tick. Exactly one branch runs
// per iteration, which is what lets every component mutate shared state
// without locks.
func (a *App) Run(ctx context.Context, discoverInterval time.Duration) error {
	if a.nickname == "" {
		if !a.promptNickname() {
			return nil
		}
	}

	ticker := time.NewTicker(discoverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-a.lines:
			if !ok {
				return nil
			}
			a.HandleInput(line)

		case ev, ok := <-a.events:
			if !ok {
				return nil
			}
			a.HandleEvent(ev)

		case <-ticker.C:
			a.net.Discover()
		}
	}
}

// ReadLines pumps lines from r into a channel the loop can select on. The
// channel closes when r reaches EOF.
func ReadLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
