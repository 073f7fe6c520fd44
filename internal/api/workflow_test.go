package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/isp-sorter/internal/iopkg"
	"github.com/yourorg/isp-sorter/internal/storage"
	"github.com/yourorg/isp-sorter/internal/types"
)

type fakeRun struct {
	client.WorkflowRun
	id, runID string
	result    types.SortStats
}

func (r fakeRun) GetID() string    { return r.id }
func (r fakeRun) GetRunID() string { return r.runID }
func (r fakeRun) Get(_ context.Context, valuePtr interface{}) error {
	*(valuePtr.(*types.SortStats)) = r.result
	return nil
}

type fakeTemporal struct {
	started  []types.WorkflowParams
	options  []client.StartWorkflowOptions
	statuses map[string]enums.WorkflowExecutionStatus
	result   types.SortStats
}

func (f *fakeTemporal) ExecuteWorkflow(_ context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	if workflow != "ComboSortWorkflow" {
		return nil, errors.New("unexpected workflow")
	}
	f.options = append(f.options, options)
	f.started = append(f.started, args[0].(types.WorkflowParams))
	return fakeRun{id: options.ID, runID: "run-1"}, nil
}

func (f *fakeTemporal) GetWorkflow(_ context.Context, workflowID, _ string) client.WorkflowRun {
	return fakeRun{id: workflowID, result: f.result}
}

func (f *fakeTemporal) DescribeWorkflowExecution(_ context.Context, workflowID, _ string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	st, ok := f.statuses[workflowID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &workflowservice.DescribeWorkflowExecutionResponse{
		WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{Status: st},
	}, nil
}

func newWorkflowRouter(t *testing.T, tc *fakeTemporal) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	r := gin.New()
	NewWorkflowHandler(tc, storage.Local{Dir: dir}, "isp-sorter", 5<<20, nil).Register(r.Group("/api/v1"))
	return r, dir
}

func TestStartComboSort(t *testing.T) {
	tc := &fakeTemporal{}
	r, _ := newWorkflowRouter(t, tc)

	body, ct := multipartBody(t, "combos.txt", sample, map[string]string{
		"output_uri":      "s3://bucket/exports/",
		"providers":       "gmail, yahoo",
		"include_bounced": "false",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/combo-sort", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if len(tc.started) != 1 {
		t.Fatalf("started=%d", len(tc.started))
	}
	p := tc.started[0]
	if p.OutputURI != "s3://bucket/exports/" || p.IncludeBounced || strings.Join(p.Providers, ",") != "gmail,yahoo" {
		t.Fatalf("params=%+v", p)
	}
	if tc.options[0].TaskQueue != "isp-sorter" || !strings.HasPrefix(tc.options[0].ID, "combo-sort-") {
		t.Fatalf("options=%+v", tc.options[0])
	}
	path, ok := iopkg.LocalPath(p.InputURI)
	if !ok {
		t.Fatalf("input uri=%q", p.InputURI)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != sample {
		t.Fatalf("stored upload=%q err=%v", got, err)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["workflow_id"] != tc.options[0].ID || resp["run_id"] != "run-1" {
		t.Fatalf("resp=%v", resp)
	}
}

func TestStartComboSortValidation(t *testing.T) {
	tc := &fakeTemporal{}
	r, _ := newWorkflowRouter(t, tc)
	cases := map[string]struct {
		filename string
		fields   map[string]string
	}{
		"no output":       {"combos.txt", nil},
		"wrong extension": {"combos.csv", map[string]string{"output_uri": "file:///tmp/out.txt"}},
		"bad flag":        {"combos.txt", map[string]string{"output_uri": "file:///tmp/out.txt", "include_bounced": "maybe"}},
	}
	for name, c := range cases {
		body, ct := multipartBody(t, c.filename, sample, c.fields)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/combo-sort", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d body=%s", name, w.Code, w.Body.String())
		}
	}
	if len(tc.started) != 0 {
		t.Fatalf("workflows started on invalid input: %d", len(tc.started))
	}
}

func TestGetWorkflowStatus(t *testing.T) {
	tc := &fakeTemporal{
		statuses: map[string]enums.WorkflowExecutionStatus{
			"running": enums.WORKFLOW_EXECUTION_STATUS_RUNNING,
			"done":    enums.WORKFLOW_EXECUTION_STATUS_COMPLETED,
		},
		result: types.SortStats{Export: types.ExportStats{OutURI: "file:///out.txt", Emitted: 2}},
	}
	r, _ := newWorkflowRouter(t, tc)

	w := get(r, http.MethodGet, "/api/v1/workflows/running/status")
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), `"result"`) {
		t.Fatalf("running: status=%d body=%s", w.Code, w.Body.String())
	}

	w = get(r, http.MethodGet, "/api/v1/workflows/done/status")
	var resp struct {
		Result types.SortStats `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || resp.Result.Export.Emitted != 2 {
		t.Fatalf("done: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := get(r, http.MethodGet, "/api/v1/workflows/missing/status"); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}
}
