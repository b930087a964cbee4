package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchSendsAuthAndBody(t *testing.T) {
	var gotAuth string
	var gotBody WorkflowRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(WorkflowResponse{RunID: "run-1", Status: "accepted"})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key")
	resp, err := c.Dispatch(context.Background(), WorkflowRequest{
		WorkflowID: "wf-1",
		UserID:     "u1",
		TriggerID:  "t1",
		TriggerContext: map[string]interface{}{
			"event_type": "RVOL_SPIKE",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "wf-1", gotBody.WorkflowID)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestDispatchNonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Dispatch(context.Background(), WorkflowRequest{WorkflowID: "wf-1"})
	assert.Error(t, err)
}
