package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voxloop/internal/transport"
	"voxloop/pkg/logger"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.Client(), "sk-test", logger.Nop()).WithBaseURL(srv.URL)
}

func TestCompleteExtractsReply(t *testing.T) {
	var gotBody completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Sure, doing that now."}}]}`))
	}))
	defer srv.Close()

	h := NewHistory("You are terse.", 4)
	h.Append(UserTurn("turn the lights on"))

	reply, err := newTestClient(srv).Complete(context.Background(), h.Render())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if reply != "Sure, doing that now." {
		t.Errorf("unexpected reply: %q", reply)
	}

	if gotBody.Model != "gpt-4o" {
		t.Errorf("unexpected model: %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected message count: %d", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != RoleSystem {
		t.Errorf("system prompt not first: %+v", gotBody.Messages[0])
	}
	if gotBody.Messages[1] != UserTurn("turn the lights on") {
		t.Errorf("unexpected user turn: %+v", gotBody.Messages[1])
	}
}

func TestCompleteSpecialCharactersSurviveWire(t *testing.T) {
	content := "say \"hi\"\nwith a backslash \\ and 'quotes'"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != content {
			t.Errorf("content mangled on the wire: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).Complete(context.Background(), []Turn{UserTurn(content)}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
}

func TestCompleteNonSuccessStatusCapturesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Complete(context.Background(), []Turn{UserTurn("hi")})
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("diagnostic missing status or body: %q", err.Error())
	}
}

func TestCompleteShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty_choices", `{"choices":[]}`},
		{"missing_content", `{"choices":[{"message":{}}]}`},
		{"not_json", `oops`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).Complete(context.Background(), []Turn{UserTurn("hi")})
			if err == nil {
				t.Fatal("expected shape error")
			}
			if _, ok := err.(*transport.APIError); !ok {
				t.Fatalf("expected *transport.APIError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.body) {
				t.Errorf("diagnostic %q missing body %q", err.Error(), tc.body)
			}
		})
	}
}
