package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/model/response"
	"taskmanager/internal/core/port"
	"taskmanager/pkg/config"
	. "taskmanager/pkg/tracing"
)

type TaskHandler struct {
	svc    port.TaskService
	Logger *config.LokiLogger
}

func NewTaskHandler(svc port.TaskService, logger *config.LokiLogger) *TaskHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &TaskHandler{svc: svc, Logger: logger}
}

func (t *TaskHandler) CreateTask(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.CreateTask", []attribute.KeyValue{
		attribute.String("handler.operation", "CreateTask"),
	})
	defer span.End()

	principal := middleware.GetPrincipal(c)

	var params request.CreateTaskRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequest(c, MessageInvalidBody)
		return
	}

	task, err := t.svc.Create(ctx, principal, params.Title, params.Description)

	if err != nil {
		AddSpanError(span, err)
		t.logFailure(c, "CreateTask", "", err)
		SendError(c, err, "Failed to create task")
		return
	}

	AddHTTPAttributes(span, c.Request.Method, c.FullPath(), http.StatusCreated)
	AddSpanEvent(span, "task.created", []attribute.KeyValue{
		attribute.String("task.id", task.ID),
	})

	c.JSON(http.StatusCreated, response.NewTaskResponse(task))
}

func (t *TaskHandler) ListTasks(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.ListTasks", []attribute.KeyValue{
		attribute.String("handler.operation", "ListTasks"),
	})
	defer span.End()

	tasks, err := t.svc.List(ctx, middleware.GetPrincipal(c))

	if err != nil {
		AddSpanError(span, err)
		t.logFailure(c, "ListTasks", "", err)
		SendError(c, err, "Failed to fetch tasks")
		return
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))

	c.JSON(http.StatusOK, response.NewTaskListResponse(tasks))
}

func (t *TaskHandler) GetTask(c *gin.Context) {
	id := c.Param("id")

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.GetTask", []attribute.KeyValue{
		attribute.String("handler.operation", "GetTask"),
		attribute.String("task.id", id),
	})
	defer span.End()

	task, err := t.svc.Get(ctx, middleware.GetPrincipal(c), id)

	if err != nil {
		AddSpanError(span, err)
		t.logFailure(c, "GetTask", id, err)
		SendError(c, err, "Failed to fetch task")
		return
	}

	c.JSON(http.StatusOK, response.NewTaskResponse(task))
}

func (t *TaskHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.UpdateTask", []attribute.KeyValue{
		attribute.String("handler.operation", "UpdateTask"),
		attribute.String("task.id", id),
	})
	defer span.End()

	var params request.PatchTaskRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequest(c, MessageInvalidBody)
		return
	}

	patch := domain.TaskPatch{
		Title:       params.Title,
		Description: params.Description,
		Completed:   params.Completed,
	}

	span.SetAttributes(attribute.StringSlice("task.fields", patch.Fields()))

	task, err := t.svc.Update(ctx, middleware.GetPrincipal(c), id, patch)

	if err != nil {
		AddSpanError(span, err)
		t.logFailure(c, "UpdateTask", id, err)
		SendError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, response.NewTaskResponse(task))
}

func (t *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.DeleteTask", []attribute.KeyValue{
		attribute.String("handler.operation", "DeleteTask"),
		attribute.String("task.id", id),
	})
	defer span.End()

	if err := t.svc.Delete(ctx, middleware.GetPrincipal(c), id); err != nil {
		AddSpanError(span, err)
		t.logFailure(c, "DeleteTask", id, err)
		SendError(c, err, "Failed to delete task")
		return
	}

	AddSpanEvent(span, "task.deleted", []attribute.KeyValue{
		attribute.String("task.id", id),
	})

	c.Status(http.StatusNoContent)
}

// logFailure records a failed operation. Server failures and ownership
// violations log at error, other client mistakes at warn.
func (t *TaskHandler) logFailure(c *gin.Context, operation, taskID string, err error) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("task_id", taskID),
		zap.String("user_id", middleware.GetPrincipal(c).UserID),
		zap.Error(err),
	}

	if StatusFor(err) >= http.StatusInternalServerError || errors.Is(err, domain.ErrForbidden) {
		t.Logger.ErrorWithTrace(c.Request.Context(), "Task operation failed", fields...)
		return
	}

	t.Logger.WarnWithTrace(c.Request.Context(), "Task operation failed", fields...)
}
