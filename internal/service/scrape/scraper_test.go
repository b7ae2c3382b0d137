package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidURL(t *testing.T) {
	if !ValidURL("https://example.com/page") {
		t.Fatal("expected https url to be valid")
	}
	if ValidURL("example.com") {
		t.Fatal("expected schemeless url to be invalid")
	}
	if ValidURL("https://") {
		t.Fatal("expected hostless url to be invalid")
	}
	if ValidURL("") {
		t.Fatal("expected empty url to be invalid")
	}
}

func TestPageTextExtractsVisibleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head><title>t</title><style>p{color:red}</style></head>
<body><script>alert(1)</script><h1>Example Domain</h1><p>This domain is for use in examples.</p></body></html>`))
	}))
	defer srv.Close()

	svc := NewService(5*time.Second, "test-agent")
	text, err := svc.PageText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("PageText err: %v", err)
	}
	if !strings.Contains(text, "Example Domain") {
		t.Fatalf("missing heading text: %q", text)
	}
	if strings.Contains(text, "alert(1)") || strings.Contains(text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", text)
	}
}

func TestPageTextRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewService(5*time.Second, "test-agent")
	if _, err := svc.PageText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestPageTextRejectsInvalidURL(t *testing.T) {
	svc := NewService(5*time.Second, "test-agent")
	if _, err := svc.PageText(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
