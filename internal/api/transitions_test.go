package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halverson/marionette/internal/batch"
	"github.com/halverson/marionette/internal/model"
)

func TestListTransitionsEmpty(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/transitions")
	if err != nil {
		t.Fatalf("GET /v1/transitions: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body listTransitionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 0 {
		t.Errorf("Total = %d, want 0", body.Total)
	}
	if body.Transitions == nil {
		t.Error("Transitions is null, want empty array")
	}
	if body.Limit != defaultListLimit {
		t.Errorf("Limit = %d, want %d", body.Limit, defaultListLimit)
	}
}

func TestListTransitionsClampsLimit(t *testing.T) {
	env := newTestEnv(t)
	seedTransition(t, env.store)

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/transitions?limit=9999&offset=-5")
	if err != nil {
		t.Fatalf("GET /v1/transitions: %v", err)
	}
	defer resp.Body.Close()

	var body listTransitionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Limit != defaultListLimit {
		t.Errorf("Limit = %d, want %d (out-of-range limit falls back)", body.Limit, defaultListLimit)
	}
	if body.Offset != 0 {
		t.Errorf("Offset = %d, want 0 (negative offset clamps)", body.Offset)
	}
}

func TestGetTransition(t *testing.T) {
	env := newTestEnv(t)
	tr := seedTransition(t, env.store)

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/transitions/" + tr.ID)
	if err != nil {
		t.Fatalf("GET transition: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got model.Transition
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != tr.ID {
		t.Errorf("ID = %q, want %q", got.ID, tr.ID)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
}

func TestGetTransitionNotFound(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/transitions/nonexistent")
	if err != nil {
		t.Fatalf("GET transition: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCancelTransitionNotLive(t *testing.T) {
	env := newTestEnv(t)
	tr := seedTransition(t, env.store)

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/transitions/"+tr.ID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("POST cancel: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a transition with no live batch", resp.StatusCode)
	}
}

func TestCancelLiveTransition(t *testing.T) {
	env := newTestEnv(t)
	b := env.svc.NewBatch(batch.Spec{Link: newNopLink(), CallingPID: 1, CallingUID: 1})

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Post(
		ts.URL+"/v1/transitions/"+b.ID()+"/cancel",
		"application/json",
		strings.NewReader(`{"reason":"operatorRequest"}`),
	)
	if err != nil {
		t.Fatalf("POST cancel: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want 200 (body: %s)", resp.StatusCode, body)
	}

	var got model.Transition
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != model.StatusCanceled {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusCanceled)
	}
	if got.Reason != "operatorRequest" {
		t.Errorf("Reason = %q, want %q", got.Reason, "operatorRequest")
	}
	if !b.Finished() {
		t.Error("live batch not finalized by cancel endpoint")
	}
}

func TestCancelLiveTransitionDefaultReason(t *testing.T) {
	env := newTestEnv(t)
	b := env.svc.NewBatch(batch.Spec{Link: newNopLink(), CallingPID: 1, CallingUID: 1})

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/transitions/"+b.ID()+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("POST cancel: %v", err)
	}
	defer resp.Body.Close()

	var got model.Transition
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Reason != "apiRequest" {
		t.Errorf("Reason = %q, want %q", got.Reason, "apiRequest")
	}
}
