package stream

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"boardroom/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var chairPersona = types.Persona{ID: "chair", Name: "The Chair"}

// feed returns upstream channels that replay events and then optionally fail.
func feed(events []types.Event, failWith error) (<-chan types.Event, <-chan error) {
	eventChan := make(chan types.Event)
	errChan := make(chan error, 1)
	go func() {
		defer close(eventChan)
		defer close(errChan)
		for _, ev := range events {
			eventChan <- ev
		}
		if failWith != nil {
			errChan <- failWith
		}
	}()
	return eventChan, errChan
}

// recorder counts persist invocations and remembers the text.
type recorder struct {
	calls int32
	text  string
	err   error
}

func (r *recorder) persist(fullText string) error {
	atomic.AddInt32(&r.calls, 1)
	r.text = fullText
	return r.err
}

func collect(t *testing.T, out <-chan Chunk) []Chunk {
	t.Helper()
	var chunks []Chunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-out:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

// checkGrammar asserts the sequence contract: metadata?, start?, text*, then
// exactly one terminal, and nothing after it.
func checkGrammar(t *testing.T, chunks []Chunk) {
	t.Helper()
	require.NotEmpty(t, chunks)

	starts, metadatas, terminals := 0, 0, 0
	for i, chunk := range chunks {
		switch chunk.Kind {
		case ChunkStart:
			starts++
		case ChunkMetadata:
			metadatas++
			assert.Equal(t, 0, i, "metadata prologue precedes everything")
		case ChunkText:
			assert.Zero(t, terminals, "no text after a terminal chunk")
		case ChunkDone, ChunkError:
			terminals++
			assert.Equal(t, len(chunks)-1, i, "terminal chunk must be last")
		}
		if chunk.Kind == ChunkStart {
			assert.Zero(t, countKind(chunks[:i], ChunkText), "start precedes text")
		}
	}
	assert.LessOrEqual(t, starts, 1)
	assert.LessOrEqual(t, metadatas, 1)
	assert.Equal(t, 1, terminals)
}

func countKind(chunks []Chunk, kind ChunkKind) int {
	n := 0
	for _, chunk := range chunks {
		if chunk.Kind == kind {
			n++
		}
	}
	return n
}

func TestRunHappyPath(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventMessageStart, MessageID: "msg_123"},
		{Kind: types.EventContentDelta, Text: "Hello"},
		{Kind: types.EventContentDelta, Text: ", board"},
		{Kind: types.EventContentDelta, Text: "."},
		{Kind: types.EventMessageStop},
	}, nil)

	rec := &recorder{}
	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, chairPersona, rec.persist))
	checkGrammar(t, chunks)

	require.Len(t, chunks, 6)
	assert.Equal(t, ChunkMetadata, chunks[0].Kind, "metadata prologue precedes upstream translation")
	require.NotNil(t, chunks[0].Persona)
	assert.Equal(t, "chair", chunks[0].Persona.ID)
	assert.Equal(t, ChunkStart, chunks[1].Kind)
	assert.Equal(t, "msg_123", chunks[1].MessageID)

	var concat strings.Builder
	for _, chunk := range chunks {
		if chunk.Kind == ChunkText {
			concat.WriteString(chunk.Text)
		}
	}
	done := chunks[len(chunks)-1]
	assert.Equal(t, ChunkDone, done.Kind)
	assert.Equal(t, "Hello, board.", done.FullText)
	assert.Equal(t, concat.String(), done.FullText, "text fragments concatenate to fullText")

	assert.Equal(t, int32(1), rec.calls, "exactly one persist per completed stream")
	assert.Equal(t, "Hello, board.", rec.text)
}

func TestRunChannelCloseActsAsStop(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventContentDelta, Text: "partial sequence"},
	}, nil)

	rec := &recorder{}
	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, chairPersona, rec.persist))
	checkGrammar(t, chunks)

	done := chunks[len(chunks)-1]
	assert.Equal(t, ChunkDone, done.Kind)
	assert.Equal(t, "partial sequence", done.FullText)
	assert.Equal(t, int32(1), rec.calls)
}

// Upstream fails after two text fragments: the client sees exactly those two
// fragments and one error chunk, and nothing is persisted.
func TestRunUpstreamFailureMidStream(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventMessageStart, MessageID: "msg_9"},
		{Kind: types.EventContentDelta, Text: "one "},
		{Kind: types.EventContentDelta, Text: "two"},
	}, errors.New("connection reset"))

	rec := &recorder{}
	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, chairPersona, rec.persist))
	checkGrammar(t, chunks)

	texts := 0
	for _, chunk := range chunks {
		if chunk.Kind == ChunkText {
			texts++
		}
	}
	assert.Equal(t, 2, texts)

	terminal := chunks[len(chunks)-1]
	assert.Equal(t, ChunkError, terminal.Kind)
	assert.Contains(t, terminal.ErrMsg, "connection reset")
	assert.Zero(t, rec.calls, "a stream that never reaches done persists nothing")
}

// The real clients buffer events, so fragments can still be queued when the
// failure is observed. They must reach the consumer, in order, before the
// terminal error chunk.
func TestRunUpstreamFailureDrainsBufferedText(t *testing.T) {
	for i := 0; i < 200; i++ {
		eventChan := make(chan types.Event, 100)
		errChan := make(chan error, 1)
		eventChan <- types.Event{Kind: types.EventContentDelta, Text: "one "}
		eventChan <- types.Event{Kind: types.EventContentDelta, Text: "two"}
		errChan <- errors.New("overloaded")
		close(eventChan)
		close(errChan)

		rec := &recorder{}
		chunks := collect(t, NewAdapter().Run(context.Background(), eventChan, errChan, types.Persona{}, rec.persist))
		checkGrammar(t, chunks)

		var texts []string
		for _, chunk := range chunks {
			if chunk.Kind == ChunkText {
				texts = append(texts, chunk.Text)
			}
		}
		require.Equal(t, []string{"one ", "two"}, texts, "iteration %d", i)
		require.Equal(t, ChunkError, chunks[len(chunks)-1].Kind, "iteration %d", i)
		require.Zero(t, rec.calls, "iteration %d", i)
	}
}

func TestRunUnknownEventsForwardedNotFatal(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventOther, Raw: `{"type":"ping"}`},
		{Kind: types.EventContentDelta, Text: "still going"},
		{Kind: types.EventMessageStop},
	}, nil)

	rec := &recorder{}
	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, chairPersona, rec.persist))
	checkGrammar(t, chunks)

	assert.Equal(t, ChunkUnknown, chunks[1].Kind)
	assert.Equal(t, `{"type":"ping"}`, chunks[1].Raw)
	assert.Equal(t, ChunkDone, chunks[len(chunks)-1].Kind)
	assert.Equal(t, int32(1), rec.calls)
}

func TestRunCancellationDiscardsPartialText(t *testing.T) {
	eventChan := make(chan types.Event)
	errChan := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		eventChan <- types.Event{Kind: types.EventContentDelta, Text: "doomed fragment"}
		// Upstream honors cancellation the way the real sources do.
		<-ctx.Done()
		close(eventChan)
		close(errChan)
	}()

	rec := &recorder{}
	out := NewAdapter().Run(ctx, eventChan, errChan, chairPersona, rec.persist)

	// Consume up to the first text chunk, then disconnect.
	for chunk := range out {
		if chunk.Kind == ChunkText {
			break
		}
	}
	cancel()

	for range out {
	}
	assert.Zero(t, rec.calls, "cancellation before done persists nothing")
}

func TestRunPersistFailureSwallowed(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventContentDelta, Text: "the full reply"},
		{Kind: types.EventMessageStop},
	}, nil)

	rec := &recorder{err: errors.New("disk full")}
	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, chairPersona, rec.persist))
	checkGrammar(t, chunks)

	done := chunks[len(chunks)-1]
	assert.Equal(t, ChunkDone, done.Kind, "consumer still receives done when persistence fails")
	assert.Equal(t, "the full reply", done.FullText)
	assert.Equal(t, int32(1), rec.calls)
}

func TestRunNoPersonaSkipsMetadata(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventMessageStop},
	}, nil)

	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, types.Persona{}, nil))
	checkGrammar(t, chunks)
	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkDone, chunks[0].Kind)
}

func TestRunDuplicateStartSuppressed(t *testing.T) {
	events, errs := feed([]types.Event{
		{Kind: types.EventMessageStart, MessageID: "a"},
		{Kind: types.EventMessageStart, MessageID: "b"},
		{Kind: types.EventMessageStop},
	}, nil)

	chunks := collect(t, NewAdapter().Run(context.Background(), events, errs, types.Persona{}, nil))
	checkGrammar(t, chunks)

	starts := 0
	for _, chunk := range chunks {
		if chunk.Kind == ChunkStart {
			starts++
		}
	}
	assert.Equal(t, 1, starts)
}
