package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"lisa/internal/domain/services"
	"lisa/internal/handler/sse"
	"lisa/internal/httputil"
	"lisa/internal/service/generation"
)

// EventSource publishes the events of jobs running in this process
type EventSource interface {
	Subscribe(documentID string) (*generation.Subscription, bool)
}

// EventsHandler streams a document's progress as Server-Sent Events until
// the document is terminal or the client goes away
type EventsHandler struct {
	docService services.DocumentService
	events     EventSource
	config     *sse.Config
	logger     *slog.Logger
}

// NewEventsHandler creates a progress stream handler. With a nil events
// source every stream polls the store.
func NewEventsHandler(docService services.DocumentService, events EventSource, config *sse.Config, logger *slog.Logger) *EventsHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &EventsHandler{
		docService: docService,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// StreamDocument forwards the live job events when the job runs in this
// process, and otherwise pushes a snapshot whenever the stored document changes
// GET /api/lisa/projects/{project_id}/documents/{document_id}/events
func (h *EventsHandler) StreamDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}
	documentID, ok := PathParam(w, r, "document_id", "Document ID")
	if !ok {
		return
	}

	ctx := r.Context()
	// Resolve before switching to SSE so a missing document is a plain 404
	doc, err := h.docService.GetDocument(ctx, projectID, documentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := h.logger.With("document_id", documentID, "project_id", projectID)
	logger.Debug("progress stream opened")

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	keepAliveStopped := keepAlive.Start(writer, logger)
	defer keepAlive.Stop()

	if h.events != nil && !doc.Status.IsTerminal() {
		if sub, ok := h.events.Subscribe(documentID); ok {
			finished := h.forward(r, writer, sub, keepAliveStopped, logger)
			sub.Close()
			if finished {
				return
			}
			// The job ended without its terminal event reaching us
			if doc, err = h.docService.GetDocument(ctx, projectID, documentID); err != nil {
				if ctx.Err() == nil {
					logger.Warn("progress stream read failed", "error", err)
				}
				return
			}
		}
	}

	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	var last []byte
	for {
		eventType, data, err := generation.NewSnapshotEvent(doc)
		if err != nil {
			logger.Error("failed to render snapshot", "error", err)
			return
		}
		if !bytes.Equal(data, last) {
			if err := writer.WriteEvent(eventType, data); err != nil {
				logger.Debug("client gone", "error", err)
				return
			}
			last = data
		}
		if doc.Status.IsTerminal() {
			logger.Debug("progress stream finished", "status", doc.Status)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-keepAliveStopped:
			return
		case <-ticker.C:
		}

		doc, err = h.docService.GetDocument(ctx, projectID, documentID)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("progress stream read failed", "error", err)
			}
			return
		}
	}
}

// forward writes a catch-up snapshot unless the client already has the
// newest event, then relays live events. It reports whether the stream is
// done; false means the job went away before a terminal event was written.
func (h *EventsHandler) forward(r *http.Request, writer *sse.Writer, sub *generation.Subscription, keepAliveStopped <-chan struct{}, logger *slog.Logger) bool {
	ctx := r.Context()
	projectID, documentID := r.PathValue("project_id"), r.PathValue("document_id")

	lastProgress := -1
	if lastEventID := r.Header.Get("Last-Event-ID"); lastEventID != sub.LastID {
		doc, err := h.docService.GetDocument(ctx, projectID, documentID)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("progress stream read failed", "error", err)
			}
			return true
		}
		eventType, data, err := generation.NewSnapshotEvent(doc)
		if err != nil {
			logger.Error("failed to render snapshot", "error", err)
			return true
		}
		if err := writer.WriteEventID(sub.LastID, eventType, data); err != nil {
			logger.Debug("client gone", "error", err)
			return true
		}
		if doc.Status.IsTerminal() {
			return true
		}
		if doc.Progress != nil {
			lastProgress = *doc.Progress
		}
	}

	for {
		select {
		case <-ctx.Done():
			return true
		case <-keepAliveStopped:
			return true
		case ev, ok := <-sub.Events:
			if !ok {
				return false
			}
			// The snapshot may already be ahead of queued progress
			if ev.Type == generation.EventProgress && ev.Progress <= lastProgress {
				continue
			}
			if err := writer.WriteEventID(ev.ID, ev.Type, ev.Data); err != nil {
				logger.Debug("client gone", "error", err)
				return true
			}
			if ev.Type != generation.EventProgress {
				logger.Debug("progress stream finished", "status", ev.Type)
				return true
			}
			lastProgress = ev.Progress
		}
	}
}
