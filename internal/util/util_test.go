package util

import (
	"net/http"
	"net/url"
	"testing"
)

func TestSafeFilename(t *testing.T) {
	tests := map[string]string{
		"a_corrected.srt":     "a_corrected.srt",
		"../../etc/passwd":    "passwd",
		"dir\\sub\\b.srt":     "b.srt",
		"  spaced.srt ":       "spaced.srt",
		"..":                  "",
		"":                    "",
		"/api/download/c.srt": "c.srt",
	}
	for in, want := range tests {
		if got := SafeFilename(in); got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".srt"}
	if !HasExtension("movie.SRT", exts) {
		t.Error("extension check should ignore case")
	}
	if HasExtension("movie.srt.txt", exts) {
		t.Error("only the final extension counts")
	}
	if HasExtension("srt", exts) {
		t.Error("a bare name has no extension")
	}
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "")
	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "api.example.com"}}
	got, err := fn(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Host != "secure-proxy:8443" {
		t.Errorf("https request used %v", got)
	}

	req.URL.Scheme = "http"
	got, _ = fn(req)
	if got.Host != "proxy:8080" {
		t.Errorf("http request used %v", got)
	}
}

func TestNewProxyFunc_NoProxy(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "", "localhost, .internal")

	for _, host := range []string{"localhost:5002", "api.internal"} {
		req := &http.Request{URL: &url.URL{Scheme: "http", Host: host}}
		got, err := fn(req)
		if err != nil || got != nil {
			t.Errorf("%s should bypass the proxy, got %v, %v", host, got, err)
		}
	}

	req := &http.Request{URL: &url.URL{Scheme: "http", Host: "example.com"}}
	if got, _ := fn(req); got == nil {
		t.Error("example.com should use the proxy")
	}
}
