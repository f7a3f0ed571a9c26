package stream

import (
	"context"
	"strings"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// Adapter translates normalized token-source events into outbound chunks.
// One adapter value is reusable across turns; each Run is independent.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

// run holds the per-turn translation state.
type run struct {
	ctx       context.Context
	out       chan Chunk
	persist   func(string) error
	full      strings.Builder
	startSeen bool
}

// Run consumes one upstream event sequence and returns the outbound chunk
// channel for the turn. The metadata prologue announcing the persona is
// emitted before any upstream translation. persist is invoked exactly once,
// with the full concatenated text, as the side effect of emitting done; a
// persist failure is logged for operators but never surfaced to the consumer,
// who already holds the complete response. Cancellation stops upstream
// consumption and persists nothing: a truncated record is worse than none.
func (a *Adapter) Run(ctx context.Context, events <-chan types.Event, errs <-chan error, persona types.Persona, persist func(fullText string) error) <-chan Chunk {
	r := &run{ctx: ctx, out: make(chan Chunk), persist: persist}

	go func() {
		defer close(r.out)

		if persona.ID != "" {
			p := persona
			if !r.send(Chunk{Kind: ChunkMetadata, Persona: &p}) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					r.fail(events, err)
					return
				}

			case ev, ok := <-events:
				if !ok {
					// Natural end of the sequence. A fatal error may have
					// been reported just before the close; it wins.
					if errs != nil {
						select {
						case err, open := <-errs:
							if open && err != nil {
								r.finish(Chunk{Kind: ChunkError, ErrMsg: err.Error()})
								return
							}
						default:
						}
					}
					r.finish(Chunk{Kind: ChunkDone, FullText: r.full.String()})
					return
				}

				switch r.forward(ev) {
				case forwarded:
				case stopped:
					r.finish(Chunk{Kind: ChunkDone, FullText: r.full.String()})
					return
				case consumerGone:
					return
				}
			}
		}
	}()

	return r.out
}

type forwardResult int

const (
	forwarded forwardResult = iota
	stopped
	consumerGone
)

// forward translates one non-terminal upstream event into its chunk.
func (r *run) forward(ev types.Event) forwardResult {
	switch ev.Kind {
	case types.EventMessageStart:
		if r.startSeen {
			return forwarded
		}
		r.startSeen = true
		if !r.send(Chunk{Kind: ChunkStart, MessageID: ev.MessageID}) {
			return consumerGone
		}
	case types.EventContentDelta:
		r.full.WriteString(ev.Text)
		if !r.send(Chunk{Kind: ChunkText, Text: ev.Text}) {
			return consumerGone
		}
	case types.EventMessageStop:
		return stopped
	default:
		if !r.send(Chunk{Kind: ChunkUnknown, Raw: ev.Raw}) {
			return consumerGone
		}
	}
	return forwarded
}

// fail emits the terminal error chunk, but first forwards any events the
// upstream produced before failing. The sources buffer events, so fragments
// emitted ahead of the failure may still be queued when the error is
// observed; emission order promises the consumer sees them before the
// terminal chunk.
func (r *run) fail(events <-chan types.Event, err error) {
drain:
	for {
		select {
		case ev, open := <-events:
			if !open {
				break drain
			}
			if ev.Kind == types.EventMessageStop {
				// The error still terminates the stream.
				continue
			}
			if r.forward(ev) == consumerGone {
				return
			}
		default:
			break drain
		}
	}
	r.finish(Chunk{Kind: ChunkError, ErrMsg: err.Error()})
}

// finish emits the terminal chunk and, on done, persists the full text.
func (r *run) finish(terminal Chunk) {
	if !r.send(terminal) {
		return
	}
	if terminal.Kind != ChunkDone || r.persist == nil {
		return
	}
	if err := r.persist(terminal.FullText); err != nil {
		logging.StreamError("persisting completed response: %v", err)
	}
}

// send delivers one chunk unless the consumer is gone.
func (r *run) send(chunk Chunk) bool {
	select {
	case r.out <- chunk:
		return true
	case <-r.ctx.Done():
		return false
	}
}
