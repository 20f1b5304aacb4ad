package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPTrigger POSTs trigger requests to an HTTP-invocable delivery worker.
type HTTPTrigger struct {
	URL    string
	Key    string
	Client *http.Client
}

func (t *HTTPTrigger) Trigger(ctx context.Context, req TriggerRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.Key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.Key)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call delivery worker: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delivery worker responded %d", resp.StatusCode)
	}
	return nil
}
