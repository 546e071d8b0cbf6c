// Package edge is the local HTTP surface of the task client. It forwards
// logins to the negotiator and task actions to the gateway.
package edge

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/service"
)

// Authenticator runs one authentication attempt
type Authenticator interface {
	Authenticate(ctx context.Context) (*service.Outcome, error)
}

// Handlers contains the edge endpoints
type Handlers struct {
	auth      Authenticator
	sessions  *service.SessionContext
	gateway   *service.TaskGateway
	refresher *service.Refresher
	pageSize  int
	now       func() time.Time
}

// Task is a task as shown at the edge, with calendar dates
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type taskPage struct {
	Pointer int64  `json:"pointer"`
	Tasks   []Task `json:"tasks"`
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD, today when empty on create
}

func toTask(t core.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     core.FormatCalendarDate(t.DueDate),
		Completed:   t.Completed,
		CreatedAt:   int64(t.CreatedAt),
		UpdatedAt:   int64(t.UpdatedAt),
	}
}

func toTaskPage(p core.TaskPage) taskPage {
	tasks := make([]Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		tasks = append(tasks, toTask(t))
	}
	return taskPage{Pointer: p.Pointer, Tasks: tasks}
}

// Login authenticates through the wallet and the ledger
func (h *Handlers) Login(c *gin.Context) {
	outcome, err := h.auth.Authenticate(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	path := "login"
	if outcome.Path == service.StateRegisterPath {
		path = "register"
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": outcome.Session.Account().ID,
		"path":       path,
		"trace":      outcome.Trace,
		"redirect":   outcome.Redirect,
		"expires_at": outcome.Session.ExpiresAt(),
	})
}

// Logout drops the session
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the account of the current session
func (h *Handlers) Me(c *gin.Context) {
	session, ok := h.sessions.Get()
	if !ok {
		writeError(c, core.ErrNoSession)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": session.Account().ID,
		"expires_at": session.ExpiresAt(),
		"state":      h.sessions.State().String(),
	})
}

// CreateTask adds a task
func (h *Handlers) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.ErrInvalidInput)
		return
	}
	if req.DueDate == "" {
		req.DueDate = service.Today(h.now())
	}

	due, err := service.ValidateTaskInput(service.TaskInput{Title: req.Title, Description: req.Description, DueDate: req.DueDate})
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.gateway.Create(c.Request.Context(), req.Title, req.Description, due); err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	c.JSON(http.StatusCreated, gin.H{"message": "Task created"})
}

// UpdateTask replaces title, description and due date of a task
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.ErrInvalidInput)
		return
	}

	due, err := service.ValidateTaskInput(service.TaskInput{Title: req.Title, Description: req.Description, DueDate: req.DueDate})
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.gateway.Update(c.Request.Context(), c.Param("id"), req.Title, req.Description, due); err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	c.JSON(http.StatusOK, gin.H{"message": "Task updated"})
}

// CompleteTask marks a task done
func (h *Handlers) CompleteTask(c *gin.Context) {
	if err := h.gateway.Complete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	c.JSON(http.StatusOK, gin.H{"message": "Task completed"})
}

// DeleteTask removes a task
func (h *Handlers) DeleteTask(c *gin.Context) {
	if err := h.gateway.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	h.refresh(c)

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ListTasks reads one task list straight from the ledger
func (h *Handlers) ListTasks(c *gin.Context) {
	session, ok := h.sessions.Get()
	if !ok {
		writeError(c, core.ErrNoSession)
		return
	}
	userID := session.Account().ID
	ctx := c.Request.Context()

	var page core.TaskPage
	var err error
	switch c.DefaultQuery("filter", "all") {
	case "all":
		pointer, perr := strconv.ParseInt(c.DefaultQuery("pointer", "0"), 10, 64)
		n, nerr := strconv.Atoi(c.DefaultQuery("n", strconv.Itoa(h.pageSize)))
		if perr != nil || nerr != nil || pointer < 0 || n < 0 {
			writeError(c, core.ErrInvalidInput)
			return
		}
		page, err = h.gateway.ListAll(ctx, userID, pointer, n)
	case "completed":
		page, err = h.gateway.ListCompleted(ctx, userID)
	case "pending":
		page, err = h.gateway.ListPending(ctx, userID)
	default:
		writeError(c, core.ErrInvalidInput)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskPage(page))
}

// View returns the last applied background refresh
func (h *Handlers) View(c *gin.Context) {
	view := h.refresher.View()

	c.JSON(http.StatusOK, gin.H{
		"seq":          view.Seq,
		"account_id":   view.AccountID,
		"all":          toTaskPage(view.All),
		"completed":    toTaskPage(view.Completed),
		"pending":      toTaskPage(view.Pending),
		"refreshed_at": view.RefreshedAt,
	})
}

// refresh re-reads the lists after a write, detached from the request
func (h *Handlers) refresh(c *gin.Context) {
	if h.refresher != nil {
		h.refresher.Trigger(context.WithoutCancel(c.Request.Context()))
	}
}
