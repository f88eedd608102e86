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

func TestHostingClient_DeployFlow(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == "GET" && strings.HasPrefix(r.URL.Path, "/endpoints/"):
			json.NewEncoder(w).Encode(core.EndpointStatus{
				EndpointName: "xgb-ep",
				Status:       core.EndpointStatusInService,
			})
		default:
			w.Write([]byte("{}"))
		}
	}))
	defer srv.Close()

	client := NewHostingClient(srv.URL, WithHostingPollInterval(time.Millisecond))
	ctx := context.Background()

	err := client.CreateModel(ctx, &core.ModelSpec{
		ModelName:    "xgb-model",
		Image:        "xgboost:1.7-1",
		ModelDataURL: "s3://bucket/prefix/output/model.tar.gz",
		RoleARN:      "arn:aws:iam::123456789012:role/ml-hosting",
	})
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}

	err = client.CreateEndpointConfig(ctx, &core.EndpointConfigSpec{
		ConfigName: "xgb-ep-config",
		Variants: []core.ProductionVariant{
			{ModelName: "xgb-model", VariantName: "AllTraffic", InstanceType: "ml.m5.large", InstanceCount: 1, InitialWeight: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateEndpointConfig: %v", err)
	}

	if err := client.CreateEndpoint(ctx, "xgb-ep", "xgb-ep-config"); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}

	status, err := client.WaitInService(ctx, "xgb-ep")
	if err != nil {
		t.Fatalf("WaitInService: %v", err)
	}
	if status.Status != core.EndpointStatusInService {
		t.Errorf("expected InService, got %s", status.Status)
	}

	want := []string{
		"POST /models",
		"POST /endpoint-configs",
		"POST /endpoints",
		"GET /endpoints/xgb-ep",
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestHostingClient_WaitInService_Polls(t *testing.T) {
	var polls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&polls, 1)
		status := core.EndpointStatusCreating
		if n >= 4 {
			status = core.EndpointStatusInService
		}
		json.NewEncoder(w).Encode(core.EndpointStatus{EndpointName: "ep", Status: status})
	}))
	defer srv.Close()

	client := NewHostingClient(srv.URL, WithHostingPollInterval(time.Millisecond))
	if _, err := client.WaitInService(context.Background(), "ep"); err != nil {
		t.Fatalf("WaitInService: %v", err)
	}
	if atomic.LoadInt64(&polls) < 4 {
		t.Errorf("expected at least 4 polls, got %d", polls)
	}
}

func TestHostingClient_WaitInService_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(core.EndpointStatus{
			EndpointName:  "ep",
			Status:        core.EndpointStatusFailed,
			FailureReason: "insufficient capacity for ml.m5.large",
		})
	}))
	defer srv.Close()

	client := NewHostingClient(srv.URL, WithHostingPollInterval(time.Millisecond))
	_, err := client.WaitInService(context.Background(), "ep")
	if err == nil || !strings.Contains(err.Error(), "insufficient capacity") {
		t.Fatalf("failure reason not surfaced: %v", err)
	}
}

func TestHostingClient_CreateEndpointConfig_NoVariants(t *testing.T) {
	client := NewHostingClient("http://unused")
	err := client.CreateEndpointConfig(context.Background(), &core.EndpointConfigSpec{ConfigName: "cfg"})
	if err == nil {
		t.Fatal("expected error for empty variants")
	}
}

func TestHostingClient_DeleteEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewHostingClient(srv.URL)
	if err := client.DeleteEndpoint(context.Background(), "xgb-ep"); err != nil {
		t.Fatalf("DeleteEndpoint: %v", err)
	}
	if gotMethod != "DELETE" || gotPath != "/endpoints/xgb-ep" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotPath)
	}
}
