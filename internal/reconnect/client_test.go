package reconnect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty base_url want ErrConfigInvalid got %v", err)
	}

	client, err := NewClient(Config{BaseURL: "https://bras.example.com/"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.cfg.BaseURL != "https://bras.example.com" {
		t.Fatalf("base_url should be trimmed, got %s", client.cfg.BaseURL)
	}
}

func TestReconnectSuccess(t *testing.T) {
	var gotAuth string
	var gotAccountNo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/account/reconnect" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		gotAccountNo = payload["account_no"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code":200,"message":"ok"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, AuthToken: "tok-1"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if err := client.Reconnect(context.Background(), "A-1001"); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization want Bearer tok-1 got %s", gotAuth)
	}
	if gotAccountNo != "A-1001" {
		t.Fatalf("account_no want A-1001 got %s", gotAccountNo)
	}
}

func TestReconnectHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if err := client.Reconnect(context.Background(), "A-1001"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("http 502 want ErrRequestFailed got %v", err)
	}
}

func TestReconnectBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code":404,"message":"账户不存在"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if err := client.Reconnect(context.Background(), "A-9999"); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("business error want ErrResponseInvalid got %v", err)
	}
}

func TestReconnectEmptyAccountNo(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://bras.example.com"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if err := client.Reconnect(context.Background(), " "); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty account_no want ErrConfigInvalid got %v", err)
	}
}
