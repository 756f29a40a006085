// Package loop runs the single-owner event loop the graphical front end
// sits on. Messages are applied one at a time in arrival order; tasks run
// on their own goroutines and post their results back.
package loop

import (
	"context"
	"sync"

	"marky/internal/dispatch"
	"marky/internal/log"
)

// Handler applies one message. It is only ever called from Run's goroutine.
type Handler func(msg dispatch.Message) dispatch.Result

// Loop serialises messages onto a handler.
type Loop struct {
	handler Handler
	render  func()
	inbox   chan dispatch.Message
	tasks   sync.WaitGroup
}

// Option configures a Loop.
type Option func(*Loop)

// WithRender sets a callback invoked after every applied message.
func WithRender(render func()) Option {
	return func(l *Loop) { l.render = render }
}

// WithQueueSize sets how many messages may wait before Send blocks.
func WithQueueSize(n int) Option {
	return func(l *Loop) { l.inbox = make(chan dispatch.Message, n) }
}

// New creates a loop feeding handler.
func New(handler Handler, opts ...Option) *Loop {
	l := &Loop{
		handler: handler,
		inbox:   make(chan dispatch.Message, 64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Send queues msg. It is safe to call from any goroutine. Nil messages are
// dropped.
func (l *Loop) Send(msg dispatch.Message) {
	if msg == nil {
		return
	}
	l.inbox <- msg
}

// Run applies messages until ctx is done or a handler result asks to quit.
// Tasks still running when Run returns see their context cancelled and
// their results are discarded.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		l.tasks.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-l.inbox:
			res := l.handler(msg)
			if l.render != nil {
				l.render()
			}
			if res.Quit {
				log.Debug("Event loop quitting")
				return nil
			}
			if res.Task != nil {
				l.spawn(ctx, res.Task)
			}
		}
	}
}

func (l *Loop) spawn(ctx context.Context, task dispatch.Task) {
	l.tasks.Add(1)
	go func() {
		defer l.tasks.Done()
		msg := task(ctx)
		if msg == nil {
			return
		}
		select {
		case l.inbox <- msg:
		case <-ctx.Done():
		}
	}()
}
