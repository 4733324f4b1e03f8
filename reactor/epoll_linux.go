//go:build linux
// +build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll implementation of the reactor.

package reactor

import (
	"container/heap"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-stream/api"
)

// entry is the loop's bookkeeping for one admitted machine.
type entry struct {
	machine api.EventMachine
	fd      int
	scope   *loopScope

	// timerSeq identifies the currently armed timer; heap items carrying a
	// stale sequence are skipped instead of removed (lazy deletion).
	timerSeq uint64
	dead     bool
}

type loop struct {
	cfg    Config
	epfd   int
	wakefd int

	// entries and timers are touched only from the loop goroutine.
	entries map[int]*entry
	timers  timerHeap

	// pending holds dispatches collected during one poll batch and run
	// after it, so a wakeup never interleaves with readiness handling.
	pending *queue.Queue

	// mu guards the cross-goroutine wakeup list and the closed flag.
	mu      sync.Mutex
	wakeups []*entry
	closed  bool
}

func newReactor(cfg Config) (Reactor, error) {
	if cfg.PollBatch <= 0 {
		cfg.PollBatch = DefaultConfig().PollBatch
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &loop{
		cfg:     cfg,
		epfd:    epfd,
		wakefd:  wakefd,
		entries: make(map[int]*entry),
		pending: queue.New(),
	}, nil
}

// Add implements Reactor.
func (l *loop) Add(m api.EventMachine) error {
	return l.AddWith(func(api.Scope) (api.EventMachine, error) {
		return m, nil
	})
}

// AddWith implements Reactor. The entry and its scope are created before
// the builder runs, so timers armed during accept land on the new machine.
func (l *loop) AddWith(build func(api.Scope) (api.EventMachine, error)) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	e := &entry{fd: -1}
	e.scope = &loopScope{loop: l, entry: e}
	m, err := build(e.scope)
	if err != nil || m == nil {
		e.dead = true
		if err != nil {
			return err
		}
		return ErrRefused
	}
	e.machine = m
	reg := &registrator{loop: l, entry: e}
	if err := m.Register(reg); err != nil {
		e.dead = true
		return err
	}
	if !reg.done {
		e.dead = true
		return errors.New("reactor: machine registered no socket")
	}
	return nil
}

// registrator captures the one Register call a machine makes at admission.
type registrator struct {
	loop  *loop
	entry *entry
	done  bool
}

func (r *registrator) Register(s api.Socket, interest api.EventSet, edgeTriggered bool) error {
	fd := int(s.RawFD())
	var ev unix.EpollEvent
	if interest.IsReadable() {
		ev.Events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest.IsWritable() {
		ev.Events |= unix.EPOLLOUT
	}
	if edgeTriggered {
		ev.Events |= unix.EPOLLET
	}
	ev.Fd = int32(fd)
	if err := unix.EpollCtl(r.loop.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	r.entry.fd = fd
	r.loop.entries[fd] = r.entry
	r.done = true
	return nil
}

// Run implements Reactor.
func (l *loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.ring() })
	defer stop()

	events := make([]unix.EpollEvent, l.cfg.PollBatch)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := unix.EpollWait(l.epfd, events, l.nextTimeout())
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)
			if fd == l.wakefd {
				l.collectWakeups()
				continue
			}
			e, ok := l.entries[fd]
			if !ok || e.dead {
				continue
			}
			es := eventSet(ev.Events)
			if es == 0 {
				continue
			}
			if e.machine.Ready(es, e.scope).Stopped() {
				l.drop(e)
			}
		}
		l.fireTimers()
		l.drainPending()
	}
}

// eventSet translates epoll bits. Error and hangup conditions map to both
// directions: the next read or write observes the failure and the machine
// handles it through its normal terminal paths.
func eventSet(bits uint32) api.EventSet {
	var es api.EventSet
	if bits&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		es |= api.EventRead
	}
	if bits&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		es |= api.EventWrite
	}
	return es
}

// nextTimeout returns the epoll timeout in milliseconds: time until the
// soonest live timer, or block forever when none is armed.
func (l *loop) nextTimeout() int {
	for l.timers.Len() > 0 {
		t := l.timers[0]
		if t.seq != t.e.timerSeq || t.e.dead {
			heap.Pop(&l.timers)
			continue
		}
		d := time.Until(t.when)
		if d <= 0 {
			return 0
		}
		ms := int(d / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
		return ms
	}
	return -1
}

func (l *loop) fireTimers() {
	now := time.Now()
	for l.timers.Len() > 0 {
		t := l.timers[0]
		if t.seq != t.e.timerSeq || t.e.dead {
			heap.Pop(&l.timers)
			continue
		}
		if t.when.After(now) {
			return
		}
		heap.Pop(&l.timers)
		t.e.timerSeq++ // one-shot: expired timer disarms itself
		if t.e.machine.Timeout(t.e.scope).Stopped() {
			l.drop(t.e)
		}
	}
}

// collectWakeups drains the eventfd counter and moves the cross-goroutine
// wakeup list into the deferred dispatch queue.
func (l *loop) collectWakeups() {
	var counter [8]byte
	_, _ = unix.Read(l.wakefd, counter[:])
	l.mu.Lock()
	ws := l.wakeups
	l.wakeups = nil
	l.mu.Unlock()
	for _, e := range ws {
		l.pending.Add(e)
	}
}

func (l *loop) drainPending() {
	for l.pending.Length() > 0 {
		e := l.pending.Remove().(*entry)
		if e.dead {
			continue
		}
		if e.machine.Wakeup(e.scope).Stopped() {
			l.drop(e)
		}
	}
}

// drop deregisters a stopped machine and closes it.
func (l *loop) drop(e *entry) {
	if e.dead {
		return
	}
	e.dead = true
	e.timerSeq++
	delete(l.entries, e.fd)
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, e.fd, nil)
	_ = e.machine.Close()
}

// wake queues a wakeup for e and rings the eventfd. Safe for concurrent use.
func (l *loop) wake(e *entry) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.wakeups = append(l.wakeups, e)
	l.mu.Unlock()
	l.ring()
	return nil
}

func (l *loop) ring() {
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	// EAGAIN means the counter is saturated and a wakeup is already due.
	_, _ = unix.Write(l.wakefd, one[:])
}

// Close implements Reactor.
func (l *loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	for _, e := range l.entries {
		l.drop(e)
	}
	unix.Close(l.wakefd)
	return unix.Close(l.epfd)
}

// loopScope is the api.Scope handed to machines admitted to this loop.
type loopScope struct {
	loop  *loop
	entry *entry
}

func (s *loopScope) AddTimeout(d time.Duration) {
	s.entry.timerSeq++
	heap.Push(&s.loop.timers, timerItem{
		when: time.Now().Add(d),
		e:    s.entry,
		seq:  s.entry.timerSeq,
	})
}

func (s *loopScope) ClearTimeout() {
	s.entry.timerSeq++
}

func (s *loopScope) Wakeup() error {
	return s.loop.wake(s.entry)
}

func (s *loopScope) Shared() any {
	return s.loop.cfg.Shared
}

// timerItem is one armed (or stale) connection timer.
type timerItem struct {
	when time.Time
	e    *entry
	seq  uint64
}

type timerHeap []timerItem

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(timerItem)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
