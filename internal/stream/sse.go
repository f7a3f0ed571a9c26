package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSE frames one chunk as a server-sent event: an event line naming the
// chunk kind, a data line with the JSON payload, and a blank-line terminator.
// When eventID is non-negative it is written as an id line so clients can
// track their position; resume itself is the client's concern.
func WriteSSE(w io.Writer, chunk Chunk, eventID int) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}
	if eventID >= 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", eventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", chunk.Kind, payload); err != nil {
		return err
	}
	return nil
}
