package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

const ServiceName = "validation-service"

const maxResponseBytes = 256 * 1024

// HTTPTransport posts the validation request to the configured endpoint.
type HTTPTransport struct {
	url    string
	httpDo func(*http.Request) (*http.Response, error)
}

func NewHTTPTransport(url string, httpClient *http.Client) (*HTTPTransport, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("validation url is required")
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &HTTPTransport{url: url, httpDo: doer}, nil
}

func (t *HTTPTransport) Validate(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpDo(httpReq)
	if err != nil {
		return Response{}, &domain.TransportError{
			Service: ServiceName,
			Timeout: ctx.Err() != nil || isTimeout(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &domain.TransportError{Service: ServiceName, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &domain.TransportError{Service: ServiceName, StatusCode: resp.StatusCode}
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Response{}, &domain.TransportError{Service: ServiceName, Err: err}
	}
	return out, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
