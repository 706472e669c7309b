// Package adapters holds reference Extractor/Loader implementations:
// illustrative wiring for the dispatch registries, not an exhaustive
// adapter catalog.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

type restConfig struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	// RecordsPath is a dotted path naming where records live in the JSON
	// payload: on extract, where the record array sits in the response
	// body; on load, where each outbound record is placed inside the
	// request body. "" means the payload is the record (array) itself.
	RecordsPath string `json:"recordsPath,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`
}

func parseRESTConfig(step pipeline.Step) (restConfig, error) {
	cfg, err := pipeline.ParseAdapterConfig(step.Key, step.Config)
	if err != nil {
		return restConfig{}, err
	}
	var rc restConfig
	if len(cfg.Args) > 0 {
		if err := json.Unmarshal(cfg.Args, &rc); err != nil {
			return restConfig{}, fmt.Errorf("rest adapter %q: invalid args: %w", step.Key, err)
		}
	}
	if rc.Method == "" {
		rc.Method = http.MethodGet
	}
	rc.Method = strings.ToUpper(rc.Method)
	if rc.URL == "" {
		return restConfig{}, fmt.Errorf("rest adapter %q: url is required", step.Key)
	}
	return rc, nil
}

func restClient(rc restConfig) *http.Client {
	timeout := 30 * time.Second
	if rc.TimeoutMs > 0 {
		timeout = time.Duration(rc.TimeoutMs) * time.Millisecond
	}
	return &http.Client{Timeout: timeout}
}

func doRequest(ctx context.Context, rc restConfig, body io.Reader) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, rc.Method, rc.URL, body)
	if err != nil {
		return nil, fmt.Errorf("rest adapter: build request: %w", err)
	}
	for k, v := range rc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := restClient(rc).Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest adapter: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rest adapter: read response: %w", err)
	}

	headers := make(map[string]any, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        string(respBody),
	}, nil
}

// RESTExtractor is the "rest" EXTRACT adapter: issues one HTTP request and
// decodes its JSON body (optionally via recordsPath) into records.
type RESTExtractor struct{}

func (RESTExtractor) Extract(ctx context.Context, step pipeline.Step, ec *pipeline.ExecutorContext, onErr pipeline.OnRecordError) ([]record.Record, error) {
	rc, err := parseRESTConfig(step)
	if err != nil {
		return nil, err
	}
	resp, err := doRequest(ctx, rc, nil)
	if err != nil {
		return nil, err
	}

	body := []byte(resp["body"].(string))
	if rc.RecordsPath != "" {
		// Select the array straight off the wire bytes instead of
		// decoding the whole envelope first.
		res, err := record.FromJSONPath(body, rc.RecordsPath)
		if err != nil {
			return nil, fmt.Errorf("rest adapter %q: response is not JSON: %w", step.Key, err)
		}
		if !res.Exists() {
			return nil, nil
		}
		body = []byte(res.Raw)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("rest adapter %q: response is not JSON: %w", step.Key, err)
	}
	arr, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("rest adapter %q: records path did not resolve to an array", step.Key)
	}
	out := make([]record.Record, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			if onErr != nil {
				onErr(step.Key, "element is not a JSON object", nil)
			}
			continue
		}
		out = append(out, record.Record(m))
	}
	return out, nil
}

// RESTLoader is the "rest" LOAD adapter: sends one request per record,
// using the configured method (GET is replaced by POST). The body is the
// record itself, or the record nested at recordsPath when one is set.
type RESTLoader struct{}

func (RESTLoader) Execute(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError, eh pipeline.ErrorHandling) (pipeline.ExecutionResult, error) {
	rc, err := parseRESTConfig(step)
	if err != nil {
		return pipeline.ExecutionResult{}, err
	}
	if rc.Method == http.MethodGet {
		rc.Method = http.MethodPost
	}

	var result pipeline.ExecutionResult
	for _, rec := range in {
		body, err := encodeLoadBody(rec, rc.RecordsPath)
		if err != nil {
			result.Fail++
			if onErr != nil {
				onErr(step.Key, err.Error(), rec)
			}
			continue
		}
		resp, err := doRequest(ctx, rc, bytes.NewReader(body))
		if err != nil || resp["status_code"].(int) >= 400 {
			result.Fail++
			msg := "non-2xx response"
			if err != nil {
				msg = err.Error()
			}
			if onErr != nil {
				onErr(step.Key, msg, rec)
			}
			if eh.Mode == pipeline.ErrorModeFailFast {
				return result, fmt.Errorf("rest adapter %q: %s", step.Key, msg)
			}
			continue
		}
		result.OK++
	}
	return result, nil
}

// encodeLoadBody builds one request body. With a recordsPath the record is
// nested at that path inside a fresh JSON object (the mirror image of the
// extractor's read); otherwise the record itself is the body.
func encodeLoadBody(rec record.Record, recordsPath string) ([]byte, error) {
	if recordsPath == "" {
		return json.Marshal(rec)
	}
	return record.SetJSONPath([]byte("{}"), recordsPath, map[string]any(rec))
}

// Simulate satisfies pipeline.LoaderSimulator: it reports the request
// shape that would be sent for each record without performing any I/O.
func (RESTLoader) Simulate(ctx context.Context, step pipeline.Step, in []record.Record) (any, error) {
	rc, err := parseRESTConfig(step)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"method": rc.Method,
		"url":    rc.URL,
		"count":  len(in),
	}, nil
}
