package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/net/http2"
)

func TestHTTPIssuer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("OK"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte("late"))
		}
	}))
	defer server.Close()

	issuer := NewHTTPIssuer(NewClient(4, 100*time.Millisecond))

	tests := []struct {
		name       string
		path       string
		success    bool
		status     int
		detailPart string
	}{
		{"success", "/ok", true, http.StatusOK, ""},
		{"not found", "/missing", false, http.StatusNotFound, "404"},
		{"server error", "/boom", false, http.StatusInternalServerError, "500"},
		{"timeout", "/slow", false, 0, "Client.Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := issuer.Issue(context.Background(), server.URL+tt.path)

			if res.Success != tt.success {
				t.Errorf("Success = %v, want %v (detail %q)", res.Success, tt.success, res.ErrorDetail)
			}
			if res.Status != tt.status {
				t.Errorf("Status = %d, want %d", res.Status, tt.status)
			}
			if tt.success && res.ErrorDetail != "" {
				t.Errorf("unexpected error detail %q", res.ErrorDetail)
			}
			if !strings.Contains(res.ErrorDetail, tt.detailPart) {
				t.Errorf("detail %q does not mention %q", res.ErrorDetail, tt.detailPart)
			}
			if res.Start.IsZero() || res.End.Before(res.Start) {
				t.Errorf("bad timing: start %v end %v", res.Start, res.End)
			}
		})
	}
}

func TestHTTPIssuer_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	res := NewHTTPIssuer(NewClient(1, time.Second)).Issue(context.Background(), url)
	if res.Success {
		t.Fatal("expected failure against a closed server")
	}
	if res.ErrorDetail == "" {
		t.Error("expected an error detail")
	}
	if res.Start.IsZero() || res.End.IsZero() || res.Elapsed() < 0 {
		t.Errorf("elapsed must be defined on failure: %+v", res)
	}
}

func TestHTTPIssuer_InvalidURL(t *testing.T) {
	res := NewHTTPIssuer(nil).Issue(context.Background(), "://nope")
	if res.Success || res.ErrorDetail == "" {
		t.Errorf("expected failure with detail, got %+v", res)
	}
	if res.Start.IsZero() || res.End.IsZero() {
		t.Error("timestamps must be set")
	}
}

func TestNewClient_RaisesPerHostLimit(t *testing.T) {
	client := NewClient(250, 5*time.Second)

	tr, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", client.Transport)
	}
	if tr.MaxIdleConnsPerHost < 250 || tr.MaxConnsPerHost < 250 || tr.MaxIdleConns < 250 {
		t.Errorf("per-host limits too low: idle=%d conns=%d total=%d",
			tr.MaxIdleConnsPerHost, tr.MaxConnsPerHost, tr.MaxIdleConns)
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", client.Timeout)
	}
}

func TestConfigureHTTP2_LogsFailure(t *testing.T) {
	tr := &http.Transport{}
	if err := http2.ConfigureTransport(tr); err != nil {
		t.Fatalf("first configuration: %v", err)
	}

	hook := logtest.NewGlobal()
	defer hook.Reset()

	// registering the https protocol a second time fails
	configureHTTP2(tr)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a warning to be logged")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level = %s, want warning", entry.Level)
	}
	if entry.Data[logrus.ErrorKey] == nil {
		t.Error("the configuration error is missing from the log entry")
	}
}
