package attach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultGenerationTimeout bounds one resume generation request.
const DefaultGenerationTimeout = 120 * time.Second

// maxErrorBody limits how much of a failed response is kept in the error.
const maxErrorBody = 512

// Generator produces a resume document tailored to a job description.
type Generator interface {
	Generate(ctx context.Context, masterResume, jobDescription string) ([]byte, error)
}

type generationRequest struct {
	MasterResume   string `json:"masterResume"`
	JobDescription string `json:"jobDescription"`
}

// HTTPGenerator posts the master resume and job description to a generation
// service and returns the response body as the document.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPGenerator creates an HTTPGenerator. A non-positive timeout uses DefaultGenerationTimeout.
func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &HTTPGenerator{url: url, client: &http.Client{Timeout: timeout}}
}

func (g *HTTPGenerator) Generate(ctx context.Context, masterResume, jobDescription string) ([]byte, error) {
	payload, err := json.Marshal(generationRequest{MasterResume: masterResume, JobDescription: jobDescription})
	if err != nil {
		return nil, &GenerationError{Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &GenerationError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &GenerationError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &GenerationError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("service returned %q", string(body))}
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GenerationError{Message: "failed to read response", Cause: err}
	}
	if len(doc) == 0 {
		return nil, &GenerationError{Message: "service returned an empty document"}
	}
	return doc, nil
}
