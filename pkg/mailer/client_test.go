package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/adee-tech/adee-backend/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		APIKey:    "test-key",
		BaseURL:   "http://mail.test/v1",
		FromEmail: "info@ad-ee.tech",
		FromName:  "Adee",
	}
}

func TestClientSend(t *testing.T) {
	var capturedURL string
	var capturedAuth string
	var capturedPayload map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")

		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &capturedPayload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}

		return &http.Response{
			StatusCode: http.StatusAccepted,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testMailConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{
		ToEmail: "user@example.com",
		ToName:  "User",
		Subject: "Verify your email",
		HTML:    "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if capturedURL != "http://mail.test/v1/email" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}

	from, _ := capturedPayload["from"].(map[string]any)
	if from["email"] != "info@ad-ee.tech" {
		t.Fatalf("unexpected from %v", from)
	}
	to, _ := capturedPayload["to"].([]any)
	if len(to) != 1 {
		t.Fatalf("expected one recipient, got %v", to)
	}
	if capturedPayload["subject"] != "Verify your email" {
		t.Fatalf("unexpected subject %v", capturedPayload["subject"])
	}
}

func TestClientSendErrorStatus(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       io.NopCloser(strings.NewReader(`{"message":"invalid recipient"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testMailConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{
		ToEmail: "user@example.com",
		Subject: "Reset your password",
		Text:    "hello",
	})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "email request failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientSendValidation(t *testing.T) {
	client, err := NewClient(testMailConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), Message{Subject: "hi"}); err == nil {
		t.Fatal("expected recipient error")
	}
	if err := client.Send(context.Background(), Message{ToEmail: "user@example.com"}); err == nil {
		t.Fatal("expected subject error")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	cfg := testMailConfig()
	cfg.APIKey = "  "
	if _, err := NewClient(cfg); err == nil {
		t.Fatal("expected api key error")
	}
}
