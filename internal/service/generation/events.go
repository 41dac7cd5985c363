package generation

import (
	"context"
	"encoding/json"

	mstream "github.com/haowjy/meridian-stream-go"

	"lisa/internal/domain/models"
)

// Event types emitted on a job stream
const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

type progressPayload struct {
	DocumentID string                `json:"document_id"`
	Status     models.DocumentStatus `json:"status"`
	Progress   int                   `json:"progress"`
	URL        *string               `json:"url,omitempty"`
	Error      *string               `json:"error,omitempty"`
}

// NewSnapshotEvent renders a document as the event a subscriber would have
// seen for its current state
func NewSnapshotEvent(doc *models.Document) (string, []byte, error) {
	payload := &progressPayload{
		DocumentID: doc.ID,
		Status:     doc.Status,
		URL:        doc.URL,
		Error:      doc.Error,
	}
	if doc.Progress != nil {
		payload.Progress = *doc.Progress
	}

	eventType := EventProgress
	switch doc.Status {
	case models.DocumentStatusCompleted:
		eventType = EventCompleted
		payload.Progress = progressDone
	case models.DocumentStatusFailed:
		eventType = EventFailed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}
	return eventType, data, nil
}

// emit sends an event on the job's stream and to its subscribers
func (j *job) emit(send func(mstream.Event), eventType string, payload *progressPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		j.logger.Error("failed to marshal event", "event_type", eventType, "error", err)
		return
	}
	send(mstream.NewEvent(data).WithType(eventType))
	j.handle.events.publish(eventType, data, payload.Progress)
}

// catchup replays the stored state to a subscriber that joins late
func (e *Engine) catchup(streamID string, lastEventID string) ([]mstream.Event, error) {
	doc, err := e.deps.Documents.GetByID(context.Background(), streamID)
	if err != nil {
		return nil, err
	}
	eventType, data, err := NewSnapshotEvent(doc)
	if err != nil {
		return nil, err
	}
	return []mstream.Event{mstream.NewEvent(data).WithType(eventType)}, nil
}
