package validation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

const testHashN1 = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func TestHTTPTransportRoundTrip(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			Success:         true,
			ServerTimestamp: "2026-08-24T12:00:00Z",
			Signature:       strings.Repeat("ab", 32),
			CertificateID:   "cert-1",
			ReceivedHashN1:  got.HashN1,
		})
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(server.URL, nil)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	resp, err := transport.Validate(context.Background(), Request{
		HashN1:           testHashN1,
		LocalTimestamp:   "2026-08-24T11:59:59Z",
		CorrelationID:    "corr-1",
		ExtensionVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !resp.Success || resp.CertificateID != "cert-1" {
		t.Fatalf("response = %+v", resp)
	}
	if got.HashN1 != testHashN1 {
		t.Fatalf("server saw hashN1 = %s", got.HashN1)
	}
	if got.CorrelationID != "corr-1" {
		t.Fatalf("server saw correlation id = %s", got.CorrelationID)
	}
}

func TestHTTPTransportServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	transport, _ := NewHTTPTransport(server.URL, nil)
	_, err := transport.Validate(context.Background(), Request{HashN1: testHashN1})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T", err)
	}
	if te.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", te.StatusCode)
	}
	if !te.ServerError() {
		t.Fatal("502 must report as server error")
	}
	if te.Service != ServiceName {
		t.Fatalf("service = %s", te.Service)
	}
}

func TestHTTPTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect and
		// cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	transport, _ := NewHTTPTransport(server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := transport.Validate(ctx, Request{HashN1: testHashN1})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T", err)
	}
	if !te.Timeout {
		t.Fatal("deadline exceeded must report as timeout")
	}
}

func TestHTTPTransportMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	transport, _ := NewHTTPTransport(server.URL, nil)
	_, err := transport.Validate(context.Background(), Request{HashN1: testHashN1})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T", err)
	}
}

func TestHTTPTransportRequiresURL(t *testing.T) {
	if _, err := NewHTTPTransport("  ", nil); err == nil {
		t.Fatal("blank url accepted")
	}
}

func TestSimulatedTransportDeterministic(t *testing.T) {
	fixed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	transport := NewSimulatedTransport(func() time.Time { return fixed })

	first, err := transport.Validate(context.Background(), Request{HashN1: testHashN1})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	second, _ := transport.Validate(context.Background(), Request{HashN1: testHashN1})

	if !first.Success {
		t.Fatal("simulated response must succeed")
	}
	if first.Signature != second.Signature {
		t.Fatal("signature must be deterministic for a fixed clock")
	}
	if len(first.Signature) != domain.HashHexLen {
		t.Fatalf("signature length = %d", len(first.Signature))
	}
	if first.ReceivedHashN1 != testHashN1 {
		t.Fatalf("echoed hashN1 = %s", first.ReceivedHashN1)
	}
	if first.SignatureAlgorithm != "SIMULATED-SHA256" {
		t.Fatalf("algorithm = %s", first.SignatureAlgorithm)
	}
	if first.CertificateID == second.CertificateID {
		t.Fatal("certificate ids must be unique per call")
	}
}

func TestSelect(t *testing.T) {
	if tr, err := Select("http://validation.local", false, nil); err != nil {
		t.Fatalf("url select: %v", err)
	} else if _, ok := tr.(*HTTPTransport); !ok {
		t.Fatalf("transport type = %T", tr)
	}

	if tr, err := Select("", false, nil); err != nil {
		t.Fatalf("dev select: %v", err)
	} else if _, ok := tr.(*SimulatedTransport); !ok {
		t.Fatalf("transport type = %T", tr)
	}

	if _, err := Select("", true, nil); !errors.Is(err, domain.ErrValidationURL) {
		t.Fatalf("production without url: %v", err)
	}
}
