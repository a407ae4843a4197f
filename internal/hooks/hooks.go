// Package hooks is the typed event bus fired at lifecycle points of a
// resolution: metadata committed, entity created, duplicate detected,
// references attached. Handlers for one event run concurrently; a handler
// may name a follow-up event, which the dispatcher fires after all
// siblings finish. Handler failures are isolated and logged, never
// propagated into the pipeline.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/literature"
)

// Kind names a dispatchable event.
type Kind string

const (
	MetadataUpdated   Kind = "metadata_updated"
	LiteratureCreated Kind = "literature_created"
	DuplicateFound    Kind = "duplicate_found"
	ReferencesFetched Kind = "references_fetched"
)

// maxCascadeDepth bounds handler-declared follow-up events. A cascade
// deeper than this indicates a handler loop and is cut off.
const maxCascadeDepth = 4

// Event is one lifecycle notification. Entity is a snapshot at dispatch
// time; handlers must not assume later pipeline stages see their mutations.
type Event struct {
	Kind   Kind
	Entity *literature.Entity
	// DuplicateLID carries the surviving entity for duplicate_found.
	DuplicateLID string
	// Stage tags which dedup stage detected the duplicate.
	Stage string
	// TaskID correlates the event with a resolution task.
	TaskID string
}

// Result is a handler's outcome. A non-nil Next is fired after every
// handler of the current event has returned.
type Result struct {
	Next *Event
}

// Handler reacts to one event kind.
type Handler interface {
	Name() string
	Handle(ctx context.Context, ev Event) (Result, error)
}

type funcHandler struct {
	name string
	fn   func(ctx context.Context, ev Event) (Result, error)
}

func (h funcHandler) Name() string { return h.name }

func (h funcHandler) Handle(ctx context.Context, ev Event) (Result, error) {
	return h.fn(ctx, ev)
}

// HandlerFunc wraps a function as a named Handler.
func HandlerFunc(name string, fn func(ctx context.Context, ev Event) (Result, error)) Handler {
	return funcHandler{name: name, fn: fn}
}

// Dispatcher maps event kinds to ordered handler sets.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	log      *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind][]Handler),
		log:      log,
	}
}

// Register appends a handler for an event kind. Registration order is
// preserved for deterministic reporting; execution within one event is
// still concurrent.
func (d *Dispatcher) Register(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch fires an event and any handler-declared follow-up events, in
// breadth order, up to the cascade bound. It returns once every handler
// of every fired event has finished.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	queue := []Event{ev}
	for depth := 0; len(queue) > 0; depth++ {
		if depth > maxCascadeDepth {
			d.log.Warn("event cascade cut off",
				zap.String("kind", string(queue[0].Kind)),
				zap.Int("depth", depth))
			return
		}
		var next []Event
		for _, e := range queue {
			next = append(next, d.fire(ctx, e)...)
		}
		queue = next
	}
}

// fire runs one event's handlers concurrently and collects follow-ups.
func (d *Dispatcher) fire(ctx context.Context, ev Event) []Event {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[ev.Kind]...)
	d.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}

	var (
		wg      sync.WaitGroup
		nextMu  sync.Mutex
		nextEvs []Event
	)
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			res, err := d.run(ctx, h, ev)
			if err != nil {
				d.log.Warn("hook handler failed",
					zap.String("event", string(ev.Kind)),
					zap.String("handler", h.Name()),
					zap.Error(err))
				return
			}
			if res.Next != nil {
				nextMu.Lock()
				nextEvs = append(nextEvs, *res.Next)
				nextMu.Unlock()
			}
		}(h)
	}
	wg.Wait()
	return nextEvs
}

// run invokes one handler, converting a panic into an error so one broken
// handler cannot take down its siblings.
func (d *Dispatcher) run(ctx context.Context, h Handler, ev Event) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}
