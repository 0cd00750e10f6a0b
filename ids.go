package bubblekit

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NewID returns a 32-character hex identifier. Used for conversation,
// stream and bubble ids; the wire treats them as opaque strings.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
