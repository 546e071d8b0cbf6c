package devledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/layer-3/taskchain/core"
)

// procedure runs with the ledger lock held on behalf of accountID
type procedure func(l *Ledger, accountID string, args []json.RawMessage) (any, error)

var procedures = map[string]procedure{
	core.ProcCreateTask:        createTask,
	core.ProcUpdateTask:        updateTask,
	core.ProcCompleteTask:      completeTask,
	core.ProcDeleteTask:        deleteTask,
	core.ProcGetMyTasks:        getMyTasks,
	core.ProcGetCompletedTasks: getCompletedTasks,
	core.ProcGetPendingTasks:   getPendingTasks,
}

func decodeArgs(args []json.RawMessage, targets ...any) error {
	if len(args) != len(targets) {
		return errBadRequest(fmt.Sprintf("expected %d arguments, got %d", len(targets), len(args)))
	}
	for i, target := range targets {
		if err := json.Unmarshal(args[i], target); err != nil {
			return errBadRequest(fmt.Sprintf("argument %d: %v", i, err))
		}
	}
	return nil
}

func createTask(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	var title, description string
	var due int64
	if err := decodeArgs(args, &title, &description, &due); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, errRejected("title is required")
	}

	now := core.MillisOf(l.now())
	task := &core.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		DueDate:     core.Millis(due),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.tasks[accountID] = append(l.tasks[accountID], task)
	l.taskOwner[task.ID] = accountID

	return *task, nil
}

func updateTask(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	var id, title, description string
	var due int64
	if err := decodeArgs(args, &id, &title, &description, &due); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, errRejected("title is required")
	}

	task, err := l.ownedTask(accountID, id)
	if err != nil {
		return nil, err
	}
	task.Title = title
	task.Description = description
	task.DueDate = core.Millis(due)
	task.UpdatedAt = core.MillisOf(l.now())

	return *task, nil
}

func completeTask(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	var id string
	if err := decodeArgs(args, &id); err != nil {
		return nil, err
	}

	task, err := l.ownedTask(accountID, id)
	if err != nil {
		return nil, err
	}
	task.Completed = true
	task.UpdatedAt = core.MillisOf(l.now())

	return *task, nil
}

func deleteTask(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	var id string
	if err := decodeArgs(args, &id); err != nil {
		return nil, err
	}
	if _, err := l.ownedTask(accountID, id); err != nil {
		return nil, err
	}

	tasks := l.tasks[accountID]
	for i, task := range tasks {
		if task.ID == id {
			l.tasks[accountID] = append(tasks[:i], tasks[i+1:]...)
			break
		}
	}
	delete(l.taskOwner, id)

	return nil, nil
}

func getMyTasks(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	var userID string
	var pointer, n int64
	if err := decodeArgs(args, &userID, &pointer, &n); err != nil {
		return nil, err
	}
	if userID != accountID {
		return nil, errForbidden("tasks of another account are not readable")
	}
	if pointer < 0 || n < 0 {
		return nil, errBadRequest("pointer and page size must not be negative")
	}

	tasks := l.tasks[accountID]
	start := min(pointer, int64(len(tasks)))
	end := min(start+n, int64(len(tasks)))

	return core.TaskPage{Pointer: end, Tasks: copyTasks(tasks[start:end])}, nil
}

func getCompletedTasks(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	return filterTasks(l, accountID, args, true)
}

func getPendingTasks(l *Ledger, accountID string, args []json.RawMessage) (any, error) {
	return filterTasks(l, accountID, args, false)
}

func filterTasks(l *Ledger, accountID string, args []json.RawMessage, completed bool) (any, error) {
	var userID string
	if err := decodeArgs(args, &userID); err != nil {
		return nil, err
	}
	if userID != accountID {
		return nil, errForbidden("tasks of another account are not readable")
	}

	var matched []*core.Task
	for _, task := range l.tasks[accountID] {
		if task.Completed == completed {
			matched = append(matched, task)
		}
	}
	return core.TaskPage{Pointer: int64(len(matched)), Tasks: copyTasks(matched)}, nil
}

// ownedTask finds a task of accountID; tasks of other accounts are reported missing
func (l *Ledger) ownedTask(accountID, id string) (*core.Task, error) {
	if l.taskOwner[id] != accountID {
		return nil, errNotFound("task not found")
	}
	for _, task := range l.tasks[accountID] {
		if task.ID == id {
			return task, nil
		}
	}
	return nil, errNotFound("task not found")
}

func copyTasks(tasks []*core.Task) []core.Task {
	out := make([]core.Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, *task)
	}
	return out
}
