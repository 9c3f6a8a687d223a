package orders

import (
	"encoding/json"
	"time"
)

const (
	EventStockChanged = "StockChanged"

	EventVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // sku for stock events
	Payload       json.RawMessage `json:"payload"`
}

// StockChangedPayload carries the absolute stock level, not a delta, so a
// replayed event converges to the same state.
type StockChangedPayload = StockChange
