package responses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-formengine/pkg/debounce"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
)

// ErrUnknownResponse is returned for response ids the editor does not hold.
var ErrUnknownResponse = errors.New("responses: unknown response")

// Updater persists an edited response and returns its new last-updated
// timestamp.
type Updater interface {
	UpdateResponse(ctx context.Context, response Response) (time.Time, error)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, response Response) (time.Time, error)

func (f UpdaterFunc) UpdateResponse(ctx context.Context, response Response) (time.Time, error) {
	return f(ctx, response)
}

// NoticeKind classifies editor notices.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice reports the outcome of one cell edit.
type Notice struct {
	Kind       NoticeKind
	ResponseID string
	Key        string
	Message    string
	Err        error
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithWindow sets the per-cell quiescence window.
func WithWindow(window time.Duration) EditorOption {
	return func(e *Editor) {
		e.window = window
	}
}

// WithNoticeFunc receives success and failure notices.
func WithNoticeFunc(fn func(Notice)) EditorOption {
	return func(e *Editor) {
		e.notify = fn
	}
}

// WithEditorLogger routes editor diagnostics to logger.
func WithEditorLogger(logger *slog.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Editor applies cell edits to a page of responses. Edits to the same cell
// are coalesced; only the last value of a burst is persisted.
type Editor struct {
	ctx     context.Context
	updater Updater
	window  time.Duration
	notify  func(Notice)
	logger  *slog.Logger
	group   *debounce.Group

	mu        sync.Mutex
	responses map[string]*Response
}

// NewEditor starts editing the given responses.
func NewEditor(ctx context.Context, updater Updater, page []Response, opts ...EditorOption) (*Editor, error) {
	if updater == nil {
		return nil, errors.New("responses: updater is required")
	}
	e := &Editor{
		ctx:       context.WithoutCancel(ctx),
		updater:   updater,
		window:    debounce.DefaultWindow,
		logger:    slog.Default(),
		responses: make(map[string]*Response, len(page)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.group = debounce.New(e.window)
	for _, r := range page {
		clone := r.Clone()
		if clone.Data == nil {
			clone.Data = model.Record{}
		}
		e.responses[r.ID] = &clone
	}
	return e, nil
}

// Response returns a snapshot of the response with id.
func (e *Editor) Response(id string) (Response, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.responses[id]
	if !ok {
		return Response{}, false
	}
	return r.Clone(), true
}

// Change schedules an edit of one cell. message is the validation message
// for value; a non-empty message is reported as a notice and nothing is
// persisted.
func (e *Editor) Change(responseID, key string, value model.FieldValue, message string) {
	value = model.CloneValue(value)
	e.group.Schedule(cellKey(responseID, key), func() {
		e.apply(responseID, key, value, message)
	})
}

// ChangeFunc adapts the editor to a control change callback for one row.
func (e *Editor) ChangeFunc(responseID string) render.ChangeFunc {
	return func(key string, value model.FieldValue, message string) {
		e.Change(responseID, key, value, message)
	}
}

// MountCell mounts a control for one cell, seeded with the stored value.
func (e *Editor) MountCell(ctx context.Context, d *render.Dispatcher, responseID string, col Column, onOptions render.OptionsFunc) (*render.Control, error) {
	r, ok := e.Response(responseID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResponse, responseID)
	}
	field, ok := CellField(col, r)
	if !ok {
		return nil, fmt.Errorf("responses: column %q has no field", col.Name)
	}
	return d.Mount(ctx, field, e.ChangeFunc(responseID), onOptions)
}

// Flush persists the pending edit of one cell immediately.
func (e *Editor) Flush(responseID, key string) bool {
	return e.group.Flush(cellKey(responseID, key))
}

// Pending reports how many cells are waiting to be persisted.
func (e *Editor) Pending() int {
	return e.group.Pending()
}

// Close cancels every pending cell edit.
func (e *Editor) Close() {
	e.group.Close()
}

// apply persists one cell. A value equal to the stored one is dropped before
// its message is considered, so mounting a cell never reports or writes.
func (e *Editor) apply(responseID, key string, value model.FieldValue, message string) {
	e.mu.Lock()
	r, ok := e.responses[responseID]
	if !ok {
		e.mu.Unlock()
		e.logger.Warn("edit for unknown response", "response", responseID, "key", key)
		return
	}
	if model.EqualValues(r.Data[key], value) {
		e.mu.Unlock()
		return
	}
	if message != "" {
		e.mu.Unlock()
		e.emit(Notice{
			Kind:       NoticeError,
			ResponseID: responseID,
			Key:        key,
			Message:    fmt.Sprintf("Error updating response: %s\nResponse ID: %s", message, responseID),
		})
		return
	}
	r.Data[key] = model.CloneValue(value)
	snapshot := r.Clone()
	e.mu.Unlock()

	updatedAt, err := e.updater.UpdateResponse(e.ctx, snapshot)
	if err != nil {
		e.logger.Error("update response failed", "response", responseID, "key", key, "error", err)
		e.emit(Notice{
			Kind:       NoticeError,
			ResponseID: responseID,
			Key:        key,
			Message:    fmt.Sprintf("Error updating response: %v\nResponse ID: %s", err, responseID),
			Err:        err,
		})
		return
	}

	e.mu.Lock()
	if r, ok := e.responses[responseID]; ok {
		r.LastUpdatedAt = updatedAt
	}
	e.mu.Unlock()
	e.emit(Notice{
		Kind:       NoticeSuccess,
		ResponseID: responseID,
		Key:        key,
		Message:    "Successfully updated response",
	})
}

func (e *Editor) emit(n Notice) {
	if e.notify != nil {
		e.notify(n)
	}
}

func cellKey(responseID, key string) string {
	return responseID + "\x00" + key
}
