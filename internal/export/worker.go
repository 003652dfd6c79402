// Package export runs asynchronous artifact generation: box sheets rendered
// from the live inventory and audit history extracts, both written to a blob
// store and retrievable by job id.
package export

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"freezercore/internal/blob"
	"freezercore/internal/core"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Kind selects what an export job renders.
type Kind string

const (
	// KindBoxSheet renders the full well grid of one box, one row per well.
	KindBoxSheet Kind = "box_sheet"
	// KindAuditHistory renders audit entries matching a history filter.
	KindAuditHistory Kind = "audit_history"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Input represents an enqueue request for the worker.
type Input struct {
	Kind        Kind
	Format      Format
	Box         core.BoxKey        // required for KindBoxSheet
	Filter      core.HistoryFilter // used by KindAuditHistory
	RequestedBy string
}

// Record tracks an export job and its resulting artifact.
type Record struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Format      Format      `json:"format"`
	Box         core.BoxKey `json:"box"`
	Status      Status      `json:"status"`
	Error       string      `json:"error,omitempty"`
	Artifact    *blob.Info  `json:"artifact,omitempty"`
	RequestedBy string      `json:"requested_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

type task struct {
	id    string
	input Input
}

// Worker executes export jobs asynchronously against a service and blob store.
type Worker struct {
	svc   *core.Service
	store blob.Store

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker.
func NewWorker(svc *core.Service, store blob.Store) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		svc:    svc,
		store:  store,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the in-flight job to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(_ context.Context, input Input) (Record, error) {
	switch input.Kind {
	case KindBoxSheet:
		if input.Box == (core.BoxKey{}) {
			return Record{}, fmt.Errorf("box key required for %s export", KindBoxSheet)
		}
	case KindAuditHistory:
	default:
		return Record{}, fmt.Errorf("unknown export kind %q", input.Kind)
	}
	switch input.Format {
	case FormatCSV, FormatJSON:
	case "":
		input.Format = FormatCSV
	default:
		return Record{}, fmt.Errorf("unknown export format %q", input.Format)
	}

	id := newJobID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Kind:        input.Kind,
		Format:      input.Format,
		Box:         input.Box,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	snapshot := record
	w.mu.Unlock()

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export queue full")
	}

	return snapshot, nil
}

// Get returns a snapshot of the export job.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	snapshot := *record
	return snapshot, true
}

// List returns snapshots of all jobs, newest first.
func (w *Worker) List() []Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Record, 0, len(w.jobs))
	for _, record := range w.jobs {
		out = append(out, *record)
	}
	sortRecords(out)
	return out
}

func (w *Worker) process(t task) {
	w.setStatus(t.id, StatusRunning, "")

	payload, contentType, err := w.render(t.input)
	if err != nil {
		w.fail(t.id, err.Error())
		return
	}

	key := artifactKey(t.id, t.input)
	info, err := w.store.Put(w.ctx, key, strings.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"kind":         string(t.input.Kind),
			"requested_by": t.input.RequestedBy,
		},
	})
	if err != nil {
		w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
		return
	}
	w.complete(t.id, info)
}

func (w *Worker) render(input Input) (payload, contentType string, err error) {
	switch input.Kind {
	case KindBoxSheet:
		rows, err := w.svc.BoxTemplate(input.Box)
		if err != nil {
			return "", "", err
		}
		return renderBoxSheet(rows, input.Format)
	case KindAuditHistory:
		entries := w.svc.QueryHistory(input.Filter)
		return renderAuditHistory(entries, input.Format)
	default:
		return "", "", fmt.Errorf("unknown export kind %q", input.Kind)
	}
}

func (w *Worker) setStatus(id string, status Status, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = time.Now().UTC()
	}
}

func (w *Worker) complete(id string, info blob.Info) {
	now := time.Now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifact = &info
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
}

func artifactKey(id string, input Input) string {
	ext := string(input.Format)
	switch input.Kind {
	case KindBoxSheet:
		return fmt.Sprintf("exports/box/%s/%s/%s/%s.%s", input.Box.FreezerName, input.Box.RackID, input.Box.ID, id, ext)
	default:
		return fmt.Sprintf("exports/audit/%s.%s", id, ext)
	}
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func newJobID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
