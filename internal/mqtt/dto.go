package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// ResultDTO is the payload published after a prediction run. Field names are
// part of the published contract.
type ResultDTO struct {
	RunID        string         `json:"runId"`
	Record       string         `json:"record"`
	Timestamp    string         `json:"timestamp"` // RFC3339
	Frequency    float64        `json:"frequency"`
	Votes        int            `json:"votes"`
	Trials       int            `json:"trials"`
	Tied         bool           `json:"tied"`
	Counts       map[string]int `json:"counts"` // label text -> votes
	SMSStatus    string         `json:"smsStatus,omitempty"`
	Undetermined bool           `json:"statusUndetermined,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// NewResultDTO stamps a result payload with the current time.
func NewResultDTO(runID, record string, at time.Time) *ResultDTO {
	return &ResultDTO{
		RunID:     runID,
		Record:    record,
		Timestamp: at.Format(time.RFC3339),
		Counts:    make(map[string]int),
	}
}

// PublishResult connects, publishes dto on topic and disconnects.
func PublishResult(ctx context.Context, c Client, topic string, dto *ResultDTO) error {
	payload, err := json.Marshal(dto)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal").
			Build()
	}

	if !c.IsConnected() {
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Disconnect()
	}
	return c.Publish(ctx, topic, payload)
}
