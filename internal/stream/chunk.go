// Package stream turns a token source's event sequence into the normalized
// chunk stream clients consume, and persists the concatenated response
// exactly once at stream end.
package stream

import (
	"boardroom/internal/types"
)

// ChunkKind tags one outbound stream unit.
type ChunkKind string

const (
	// ChunkStart carries the upstream message id when the provider supplies one.
	ChunkStart ChunkKind = "start"
	// ChunkMetadata announces the active persona, at most once, before any text.
	ChunkMetadata ChunkKind = "metadata"
	// ChunkText carries one fragment; fragments concatenate in emission order.
	ChunkText ChunkKind = "text"
	// ChunkDone is the success terminal and carries the full concatenation.
	ChunkDone ChunkKind = "done"
	// ChunkError is the failure terminal.
	ChunkError ChunkKind = "error"
	// ChunkUnknown forwards an unrecognized upstream event without aborting.
	ChunkUnknown ChunkKind = "unknown"
)

// Chunk is one unit of the outbound stream. Consumers may rely on the
// sequence grammar: at most one start, at most one metadata, zero or more
// text chunks in order, then exactly one of done or error, after which the
// channel closes.
type Chunk struct {
	Kind      ChunkKind      `json:"kind"`
	MessageID string         `json:"messageId,omitempty"`
	Persona   *types.Persona `json:"persona,omitempty"`
	Text      string         `json:"text,omitempty"`
	FullText  string         `json:"fullText,omitempty"`
	ErrMsg    string         `json:"error,omitempty"`
	Raw       string         `json:"raw,omitempty"`
}

// Terminal reports whether no further chunks follow c.
func (c Chunk) Terminal() bool {
	return c.Kind == ChunkDone || c.Kind == ChunkError
}
