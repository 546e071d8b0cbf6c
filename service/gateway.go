package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/layer-3/taskchain/core"
)

// TaskGateway issues task procedures through the current session.
// Every call short-circuits with core.ErrNoSession when no session is held.
type TaskGateway struct {
	sessions SessionReader
	logger   *slog.Logger
}

// NewTaskGateway creates a gateway reading the session from sessions
func NewTaskGateway(sessions SessionReader, logger *slog.Logger) *TaskGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskGateway{sessions: sessions, logger: logger}
}

// Create adds a task due at the given day
func (g *TaskGateway) Create(ctx context.Context, title, description string, due core.Millis) error {
	_, err := g.call(ctx, core.ProcCreateTask, title, description, int64(due))
	return err
}

// Update replaces the editable fields of a task
func (g *TaskGateway) Update(ctx context.Context, id, title, description string, due core.Millis) error {
	_, err := g.call(ctx, core.ProcUpdateTask, id, title, description, int64(due))
	return err
}

// Complete marks a task done
func (g *TaskGateway) Complete(ctx context.Context, id string) error {
	_, err := g.call(ctx, core.ProcCompleteTask, id)
	return err
}

// Delete removes a task
func (g *TaskGateway) Delete(ctx context.Context, id string) error {
	_, err := g.call(ctx, core.ProcDeleteTask, id)
	return err
}

// ListAll returns up to n tasks of userID starting at pointer
func (g *TaskGateway) ListAll(ctx context.Context, userID string, pointer int64, n int) (core.TaskPage, error) {
	return g.list(ctx, core.ProcGetMyTasks, userID, pointer, n)
}

// ListCompleted returns the completed tasks of userID
func (g *TaskGateway) ListCompleted(ctx context.Context, userID string) (core.TaskPage, error) {
	return g.list(ctx, core.ProcGetCompletedTasks, userID)
}

// ListPending returns the open tasks of userID
func (g *TaskGateway) ListPending(ctx context.Context, userID string) (core.TaskPage, error) {
	return g.list(ctx, core.ProcGetPendingTasks, userID)
}

func (g *TaskGateway) list(ctx context.Context, name string, args ...any) (core.TaskPage, error) {
	raw, err := g.call(ctx, name, args...)
	if err != nil {
		return core.TaskPage{}, err
	}

	var page core.TaskPage
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page); err != nil {
			return core.TaskPage{}, fmt.Errorf("%w: %s: decoding result: %v", core.ErrRemoteCall, name, err)
		}
	}
	if page.Tasks == nil {
		page.Tasks = []core.Task{}
	}
	return page, nil
}

func (g *TaskGateway) call(ctx context.Context, name string, args ...any) (json.RawMessage, error) {
	session, ok := g.sessions.Get()
	if !ok {
		return nil, core.ErrNoSession
	}

	raw, err := session.Call(ctx, core.Operation{Name: name, Args: args})
	if err != nil {
		g.logger.Error("ledger call failed", "procedure", name, "account", session.Account().ID, "error", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRemoteCall, err)
	}
	return raw, nil
}

// TaskInput is a task as entered at the edge
type TaskInput struct {
	Title       string
	Description string
	DueDate     string // Calendar date, YYYY-MM-DD
}

// ValidateTaskInput checks presence of a title and a valid due date and
// returns the due date as a ledger timestamp
func ValidateTaskInput(in TaskInput) (core.Millis, error) {
	if strings.TrimSpace(in.Title) == "" {
		return 0, fmt.Errorf("%w: title is required", core.ErrInvalidInput)
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return 0, fmt.Errorf("%w: due date is required", core.ErrInvalidInput)
	}
	return core.ParseCalendarDate(strings.TrimSpace(in.DueDate))
}

// Today is the default due date of a new task
func Today(now time.Time) string {
	return now.UTC().Format(core.CalendarDateLayout)
}

var _ SessionReader = (*SessionContext)(nil)
