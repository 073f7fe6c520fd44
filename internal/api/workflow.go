package api

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/filter"
	"github.com/yourorg/isp-sorter/internal/storage"
	"github.com/yourorg/isp-sorter/internal/types"
)

// workflowClient is the part of client.Client the handler uses.
type workflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
}

type WorkflowHandler struct {
	temporalClient workflowClient
	store          storage.ObjectStore
	taskQueue      string
	maxBytes       int64
	log            *zap.Logger
}

func NewWorkflowHandler(tc workflowClient, store storage.ObjectStore, taskQueue string, maxBytes int64, log *zap.Logger) *WorkflowHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkflowHandler{temporalClient: tc, store: store, taskQueue: taskQueue, maxBytes: maxBytes, log: log}
}

func (h *WorkflowHandler) Register(g *gin.RouterGroup) {
	g.POST("/workflows/combo-sort", h.StartComboSort)
	g.GET("/workflows/:id/status", h.GetWorkflowStatus)
}

// StartComboSort stores the uploaded file and starts a ComboSortWorkflow
// over it. Form fields: file, output_uri, providers, include_bounced.
func (h *WorkflowHandler) StartComboSort(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + err.Error()})
		return
	}
	if code, err := validateUpload(fh, h.maxBytes); err != nil {
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	out := c.PostForm("output_uri")
	if out == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "output_uri is required"})
		return
	}
	includeBounced := true
	if v := c.PostForm("include_bounced"); v != "" {
		if includeBounced, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid include_bounced %q", v)})
			return
		}
	}

	id := uuid.NewString()
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()
	inURI, err := h.store.Put(c.Request.Context(), path.Join("uploads", id, path.Base(fh.Filename)), f)
	if err != nil {
		h.log.Error("store upload", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	params := types.WorkflowParams{
		InputURI:       inURI,
		OutputURI:      out,
		Providers:      filter.ParseProviders(c.PostForm("providers")),
		IncludeBounced: includeBounced,
		ScratchSubdir:  "upload-" + id,
	}
	options := client.StartWorkflowOptions{
		ID:        "combo-sort-" + id,
		TaskQueue: h.taskQueue,
	}
	we, err := h.temporalClient.ExecuteWorkflow(c.Request.Context(), options, "ComboSortWorkflow", params)
	if err != nil {
		h.log.Error("start workflow", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start workflow: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
		"input_uri":   inURI,
	})
}

// GetWorkflowStatus reports the execution status of a workflow and, once it
// has completed, its result.
func (h *WorkflowHandler) GetWorkflowStatus(c *gin.Context) {
	workflowID := c.Param("id")
	ctx := c.Request.Context()

	describe, err := h.temporalClient.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}
	info := describe.GetWorkflowExecutionInfo()
	status := info.GetStatus()
	resp := gin.H{
		"workflow_id": workflowID,
		"status":      strings.TrimPrefix(status.String(), "WORKFLOW_EXECUTION_STATUS_"),
		"start_time":  info.GetStartTime().AsTime(),
	}
	if status == enums.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		var result types.SortStats
		if err := h.temporalClient.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read workflow result: " + err.Error()})
			return
		}
		resp["result"] = result
	}
	c.JSON(http.StatusOK, resp)
}
