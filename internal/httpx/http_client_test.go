package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExternalHTTPClientTimeout(t *testing.T) {
	if externalHTTPClient == nil {
		t.Fatal("externalHTTPClient must not be nil")
	}
	if externalHTTPClient.Timeout <= 0 {
		t.Fatalf("externalHTTPClient timeout must be set, got %s", externalHTTPClient.Timeout)
	}
	if externalHTTPClient.Timeout != defaultExternalHTTPTimeout {
		t.Fatalf("externalHTTPClient timeout = %s, want %s", externalHTTPClient.Timeout, defaultExternalHTTPTimeout)
	}
}

func TestConfigureExternalHTTPClient(t *testing.T) {
	original := externalHTTPClient.Timeout
	t.Cleanup(func() {
		externalHTTPClient.Timeout = original
	})

	got := ConfigureExternalHTTPClient(0)
	if got != defaultExternalHTTPTimeout {
		t.Fatalf("ConfigureExternalHTTPClient(0) = %s, want %s", got, defaultExternalHTTPTimeout)
	}
	if externalHTTPClient.Timeout != defaultExternalHTTPTimeout {
		t.Fatalf("configured timeout = %s, want %s", externalHTTPClient.Timeout, defaultExternalHTTPTimeout)
	}

	got = ConfigureExternalHTTPClient(120)
	if got != 120*time.Second {
		t.Fatalf("ConfigureExternalHTTPClient(120) = %s, want %s", got, 120*time.Second)
	}
	if externalHTTPClient.Timeout != 120*time.Second {
		t.Fatalf("configured timeout = %s, want %s", externalHTTPClient.Timeout, 120*time.Second)
	}
}

func TestExternalHTTPClientIsShared(t *testing.T) {
	if ExternalHTTPClient() != externalHTTPClient {
		t.Fatal("ExternalHTTPClient must return the shared client")
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("title,duration\n"))
		case "/gone":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	body, err := Download(context.Background(), server.Client(), server.URL+"/ok")
	if err != nil {
		t.Fatalf("Download(ok) failed: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "title,duration\n" {
		t.Fatalf("unexpected body %q", data)
	}

	_, err = Download(context.Background(), server.Client(), server.URL+"/gone")
	var status *StatusError
	if !errors.As(err, &status) || !status.Gone() {
		t.Fatalf("expected gone status error, got %v", err)
	}

	_, err = Download(context.Background(), nil, server.URL+"/broken")
	if !errors.As(err, &status) || status.Gone() || status.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status error, got %v", err)
	}
}

func TestIsURL(t *testing.T) {
	for location, want := range map[string]bool{
		"https://example.com/a.ics": true,
		"http://example.com/a.csv":  true,
		"./activity.csv":            false,
		"C:\\sheets\\a.csv":         false,
	} {
		if got := IsURL(location); got != want {
			t.Fatalf("IsURL(%q) = %t, want %t", location, got, want)
		}
	}
}
