package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galadraft/galadraft/internal/draft/engine"
)

func TestWriteErrorMapsEngineCodes(t *testing.T) {
	tests := []struct {
		code   engine.Code
		status int
	}{
		{engine.CodeDraftNotFound, http.StatusNotFound},
		{engine.CodeForbidden, http.StatusForbidden},
		{engine.CodeNotEnoughParticipants, http.StatusUnprocessableEntity},
		{engine.CodeMissingNominations, http.StatusUnprocessableEntity},
		{engine.CodeInsufficientNoms, http.StatusUnprocessableEntity},
		{engine.CodeAlreadyStarted, http.StatusConflict},
		{engine.CodeInvalidState, http.StatusConflict},
		{engine.CodeNominationTaken, http.StatusConflict},
		{engine.CodeNotOnTurn, http.StatusConflict},
		{engine.CodeCeremonyLocked, http.StatusConflict},
		{engine.CodeAutodraftEmptyPool, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, &engine.Error{Code: tt.code, Message: "boom"})
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.code), body["code"])
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHealthz(t *testing.T) {
	h := NewHandlers(nil, NewConnectionManager(DefaultConnectionConfig()))
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatsEmptyManager(t *testing.T) {
	h := NewHandlers(nil, NewConnectionManager(DefaultConnectionConfig()))
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalConnections)
	assert.Zero(t, stats.ActiveDrafts)
}

func TestMutatingHandlersRequireIdentity(t *testing.T) {
	h := NewHandlers(nil, NewConnectionManager(DefaultConnectionConfig()))
	mux := http.NewServeMux()
	h.Register(mux)

	draftID := "0d9f7a46-8c3f-4f62-9f7f-0a4ad2cbd6c1"
	for _, path := range []string{"start", "pause", "resume", "pick", "cancel"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/drafts/"+draftID+"/"+path, nil)
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestInvalidDraftIDRejected(t *testing.T) {
	h := NewHandlers(nil, NewConnectionManager(DefaultConnectionConfig()))
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/drafts/not-a-uuid/start", nil)
	req.Header.Set("X-User-ID", "0d9f7a46-8c3f-4f62-9f7f-0a4ad2cbd6c1")
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
