package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

func TestRESTExtractorDecodesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": float64(1)},
			{"id": float64(2)},
		})
	}))
	defer srv.Close()

	args, _ := json.Marshal(map[string]any{"url": srv.URL})
	cfg, _ := json.Marshal(pipeline.AdapterConfig{AdapterCode: "rest", Args: args})
	step := pipeline.Step{Key: "extract1", Config: cfg}

	ec := pipeline.NewExecutorContext(pipeline.ErrorHandling{}, pipeline.Checkpointing{})
	recs, err := RESTExtractor{}.Extract(context.Background(), step, ec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestRESTLoaderPostsRecords(t *testing.T) {
	var received int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	args, _ := json.Marshal(map[string]any{"url": srv.URL, "method": "POST"})
	cfg, _ := json.Marshal(pipeline.AdapterConfig{AdapterCode: "rest", Args: args})
	step := pipeline.Step{Key: "load1", Config: cfg}

	in := []record.Record{{"id": 1}, {"id": 2}}

	result, err := RESTLoader{}.Execute(context.Background(), step, in, nil, pipeline.ErrorHandling{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK != 2 || received != 2 {
		t.Fatalf("expected 2 ok/received, got %+v / %d", result, received)
	}
}

func TestRESTExtractorSelectsRecordsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"items":[{"sku":"A"},{"sku":"B"}],"total":2}}`))
	}))
	defer srv.Close()

	args, _ := json.Marshal(map[string]any{"url": srv.URL, "recordsPath": "data.items"})
	cfg, _ := json.Marshal(pipeline.AdapterConfig{AdapterCode: "rest", Args: args})
	step := pipeline.Step{Key: "extract1", Config: cfg}

	ec := pipeline.NewExecutorContext(pipeline.ErrorHandling{}, pipeline.Checkpointing{})
	recs, err := RESTExtractor{}.Extract(context.Background(), step, ec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0]["sku"] != "A" {
		t.Fatalf("expected records from data.items, got %v", recs)
	}
}

func TestRESTExtractorMissingRecordsPathYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	args, _ := json.Marshal(map[string]any{"url": srv.URL, "recordsPath": "data.items"})
	cfg, _ := json.Marshal(pipeline.AdapterConfig{AdapterCode: "rest", Args: args})
	step := pipeline.Step{Key: "extract1", Config: cfg}

	ec := pipeline.NewExecutorContext(pipeline.ErrorHandling{}, pipeline.Checkpointing{})
	recs, err := RESTExtractor{}.Extract(context.Background(), step, ec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %v", recs)
	}
}

func TestRESTLoaderNestsRecordAtRecordsPath(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	args, _ := json.Marshal(map[string]any{"url": srv.URL, "method": "POST", "recordsPath": "payload.item"})
	cfg, _ := json.Marshal(pipeline.AdapterConfig{AdapterCode: "rest", Args: args})
	step := pipeline.Step{Key: "load1", Config: cfg}

	result, err := RESTLoader{}.Execute(context.Background(), step, []record.Record{{"sku": "A"}}, nil, pipeline.ErrorHandling{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK != 1 || len(bodies) != 1 {
		t.Fatalf("expected one delivered body, got %+v / %v", result, bodies)
	}
	payload, _ := bodies[0]["payload"].(map[string]any)
	item, _ := payload["item"].(map[string]any)
	if item["sku"] != "A" {
		t.Fatalf("expected record nested at payload.item, got %v", bodies[0])
	}
}
