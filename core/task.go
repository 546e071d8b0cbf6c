package core

import "time"

// Millis is a Unix timestamp in milliseconds, the date format on the ledger boundary
type Millis int64

// MillisOf converts a time to its millisecond timestamp
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time returns the timestamp as a UTC time
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// Task is a single to-do item owned by the ledger
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     Millis `json:"due_date"`
	Completed   bool   `json:"completed"`
	CreatedAt   Millis `json:"created_at"`
	UpdatedAt   Millis `json:"updated_at"`
}

// TaskPage is the result of a task list query
type TaskPage struct {
	Pointer int64  `json:"pointer"`
	Tasks   []Task `json:"tasks"`
}

// Ledger procedures consumed by the task gateway
const (
	ProcCreateTask        = "create_task"
	ProcUpdateTask        = "update_task"
	ProcCompleteTask      = "complete_task"
	ProcDeleteTask        = "delete_task"
	ProcGetMyTasks        = "get_my_tasks"
	ProcGetCompletedTasks = "get_my_completed_tasks"
	ProcGetPendingTasks   = "get_my_pending_tasks"
)
