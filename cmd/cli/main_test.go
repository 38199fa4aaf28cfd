package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestAccountPath(t *testing.T) {
	if got := accountPath([]string{"user", "alice"}); got != "/api/v1/accounts/user/alice" {
		t.Fatalf("unexpected path %q", got)
	}

	if got := accountPath([]string{"team", "ops/eu"}); got != "/api/v1/accounts/team/ops%2Feu" {
		t.Fatalf("expected path segments to be escaped, got %q", got)
	}
}

func TestAmountBody(t *testing.T) {
	body := amountBody("12.50", "", "")
	if body["amount"] != "12.50" {
		t.Fatalf("unexpected amount: %v", body["amount"])
	}
	if _, ok := body["currency"]; ok {
		t.Fatalf("expected currency to be omitted when empty")
	}
	if _, ok := body["reason"]; ok {
		t.Fatalf("expected reason to be omitted when empty")
	}

	body = amountBody("5", "EUR", "refund")
	if body["currency"] != "EUR" || body["reason"] != "refund" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDoGetPrintsIndentedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/user/alice/balance" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":"70"}`))
	}))
	defer server.Close()

	origURL, origTimeout := baseURL, timeout
	baseURL, timeout = server.URL, time.Second
	defer func() { baseURL, timeout = origURL, origTimeout }()

	out := captureOutput(t, func() {
		doGet("/api/v1/accounts/user/alice/balance", nil)
	})

	expected := "{\n  \"balance\": \"70\"\n}\n"
	if out != expected {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDoPostSendsJSONBody(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	origURL, origTimeout := baseURL, timeout
	baseURL, timeout = server.URL, time.Second
	defer func() { baseURL, timeout = origURL, origTimeout }()

	out := captureOutput(t, func() {
		doPost("/api/v1/accounts/user/alice/credit", amountBody("10", "USD", ""))
	})

	if received["amount"] != "10" || received["currency"] != "USD" {
		t.Fatalf("unexpected request body: %v", received)
	}

	if !strings.Contains(out, `"ok": true`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
