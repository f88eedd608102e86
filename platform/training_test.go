package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushteam/servekit/core"
)

func testJobSpec() *core.TrainingJobSpec {
	return &core.TrainingJobSpec{
		JobName:        "xgb-regression-001",
		AlgorithmImage: "xgboost:1.7-1",
		RoleARN:        "arn:aws:iam::123456789012:role/ml-training",
		InputChannels: []core.DataChannel{
			{Name: "train", URI: "s3://bucket/prefix/train.csv", ContentType: "text/csv"},
			{Name: "validation", URI: "s3://bucket/prefix/validation.csv", ContentType: "text/csv"},
		},
		OutputPath:      "s3://bucket/prefix/output",
		KMSKeyID:        "alias/ml-data-key",
		Hyperparameters: map[string]string{"objective": "reg:squarederror", "num_round": "100"},
		Resources:       core.ResourceConfig{InstanceType: "ml.m5.xlarge", InstanceCount: 1, VolumeSizeGB: 30},
		MaxRuntime:      time.Hour,
	}
}

func TestTrainingClient_CreateTrainingJob(t *testing.T) {
	var gotReq map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/training-jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]string{"job_arn": "arn:job/xgb-regression-001"})
	}))
	defer srv.Close()

	client := NewTrainingClient(srv.URL)
	arn, err := client.CreateTrainingJob(context.Background(), testJobSpec())
	if err != nil {
		t.Fatalf("CreateTrainingJob: %v", err)
	}
	if arn != "arn:job/xgb-regression-001" {
		t.Errorf("unexpected arn: %s", arn)
	}
	if gotReq["job_name"] != "xgb-regression-001" {
		t.Errorf("job_name not serialized: %v", gotReq["job_name"])
	}
	if gotReq["kms_key_id"] != "alias/ml-data-key" {
		t.Errorf("kms_key_id not serialized: %v", gotReq["kms_key_id"])
	}
	if gotReq["max_runtime_seconds"] != float64(3600) {
		t.Errorf("max runtime must serialize as seconds, got %v", gotReq["max_runtime_seconds"])
	}
}

func TestTrainingClient_CreateTrainingJob_MissingName(t *testing.T) {
	client := NewTrainingClient("http://unused")
	if _, err := client.CreateTrainingJob(context.Background(), &core.TrainingJobSpec{}); err == nil {
		t.Fatal("expected error for missing job name")
	}
}

func TestTrainingClient_WaitForCompletion(t *testing.T) {
	var polls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&polls, 1)
		status := core.JobStatusInProgress
		artifacts := ""
		if n >= 3 {
			status = core.JobStatusCompleted
			artifacts = "s3://bucket/prefix/output/model.tar.gz"
		}
		json.NewEncoder(w).Encode(core.TrainingJobStatus{
			JobName:        "xgb-regression-001",
			Status:         status,
			ModelArtifacts: artifacts,
		})
	}))
	defer srv.Close()

	client := NewTrainingClient(srv.URL, WithTrainingPollInterval(time.Millisecond))
	status, err := client.WaitForCompletion(context.Background(), "xgb-regression-001")
	if err != nil {
		t.Fatalf("WaitForCompletion: %v", err)
	}
	if status.Status != core.JobStatusCompleted {
		t.Errorf("expected Completed, got %s", status.Status)
	}
	if status.ModelArtifacts == "" {
		t.Error("expected model artifacts location")
	}
	if atomic.LoadInt64(&polls) < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls)
	}
}

func TestTrainingClient_WaitForCompletion_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(core.TrainingJobStatus{
			JobName:       "xgb-regression-001",
			Status:        core.JobStatusFailed,
			FailureReason: "AlgorithmError: label column contains NaN",
		})
	}))
	defer srv.Close()

	client := NewTrainingClient(srv.URL, WithTrainingPollInterval(time.Millisecond))
	status, err := client.WaitForCompletion(context.Background(), "xgb-regression-001")
	if err == nil {
		t.Fatal("expected failure error")
	}
	if !strings.Contains(err.Error(), "label column contains NaN") {
		t.Errorf("failure reason not surfaced: %v", err)
	}
	if status == nil || status.Status != core.JobStatusFailed {
		t.Errorf("expected Failed status alongside error, got %+v", status)
	}
}

func TestTrainingClient_WaitForCompletion_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(core.TrainingJobStatus{Status: core.JobStatusInProgress})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewTrainingClient(srv.URL, WithTrainingPollInterval(time.Hour))
	if _, err := client.WaitForCompletion(ctx, "job"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTrainingClient_ControlPlaneError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("ValidationException: role not authorized"))
	}))
	defer srv.Close()

	client := NewTrainingClient(srv.URL)
	_, err := client.CreateTrainingJob(context.Background(), testJobSpec())
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status=400 error, got %v", err)
	}
}
