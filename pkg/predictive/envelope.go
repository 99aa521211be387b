package predictive

import (
	"encoding/json"
	"fmt"
)

// Envelope is the canonical request body sent to the service. Field order
// is significant: it fixes the order of keys on the wire.
type Envelope struct {
	Data   any    `json:"data"`
	ID     string `json:"id,omitempty"`
	APIKey string `json:"api_key"`
}

func newQueryEnvelope(data any, apiKey string) Envelope {
	return Envelope{Data: data, APIKey: apiKey}
}

func newFeedbackEnvelope(requestID string, data any, apiKey string) Envelope {
	return Envelope{Data: data, ID: requestID, APIKey: apiKey}
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: encode envelope: %v", ErrSerialization, err)
	}
	return raw, nil
}
