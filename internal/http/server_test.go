package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/classifier"
	"github.com/leaguelab/constraintd/internal/pipeline"
	"github.com/leaguelab/constraintd/internal/schema"
	"github.com/leaguelab/constraintd/internal/segment"
	"github.com/leaguelab/constraintd/internal/store"
)

type fakeProcessor struct {
	result *pipeline.Result
	err    error

	gotUserID   string
	gotMessages []segment.Message
}

func (f *fakeProcessor) Process(_ context.Context, userID string, messages []segment.Message) (*pipeline.Result, error) {
	f.gotUserID = userID
	f.gotMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeHistory struct {
	rows []store.Row
	err  error

	gotUserID string
}

func (f *fakeHistory) ListByUser(_ context.Context, userID string) ([]store.Row, error) {
	f.gotUserID = userID
	return f.rows, f.err
}

func newTestServer(t *testing.T, p Processor) *Server {
	t.Helper()
	return newTestServerWithHistory(t, p, &fakeHistory{})
}

func newTestServerWithHistory(t *testing.T, p Processor, h History) *Server {
	t.Helper()
	s, err := NewServer(p, h, zap.NewNop(), nil)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, &fakeHistory{}, zap.NewNop(), nil)
	require.Error(t, err)

	_, err = NewServer(&fakeProcessor{}, nil, zap.NewNop(), nil)
	require.Error(t, err)

	_, err = NewServer(&fakeProcessor{}, &fakeHistory{}, nil, nil)
	require.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleMetrics(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStructuredOutput_MissingUserHeader(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "",
		`{"messages":[{"role":"user","content":"no Mondays"}]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStructuredOutput_InvalidBody(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStructuredOutput_EmptyRequest(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{err: segment.ErrEmptyRequest})

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1",
		`{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStructuredOutput_ClassifierUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{err: classifier.ErrUnavailable})

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1",
		`{"messages":[{"role":"user","content":"no Mondays"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStructuredOutput_InternalError(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{err: fmt.Errorf("boom")})

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1",
		`{"messages":[{"role":"user","content":"no Mondays"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStructuredOutput_OK(t *testing.T) {
	c, err := schema.NewConstraint(schema.VariantTemporal)
	require.NoError(t, err)
	c.Kind = schema.KindDaysOfWeek
	c.Scope = []string{"league"}

	output := schema.NewStructuredOutput()
	output.Constraints = append(output.Constraints, c)

	p := &fakeProcessor{result: &pipeline.Result{Output: output}}
	s := newTestServer(t, p)

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1",
		`{"messages":[{"role":"user","content":"no Mondays"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "user-1", p.gotUserID)
	require.Len(t, p.gotMessages, 1)
	assert.Equal(t, "no Mondays", p.gotMessages[0].Content)

	var got schema.StructuredOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Constraints, 1)
	assert.Equal(t, schema.KindDaysOfWeek, got.Constraints[0].Kind)
	assert.Equal(t, c.ID, got.Constraints[0].ID)
}

func TestListConstraints_MissingUserHeader(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodGet, "/api/v1/constraints", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListConstraints_StoreError(t *testing.T) {
	s := newTestServerWithHistory(t, &fakeProcessor{},
		&fakeHistory{err: store.ErrPersistenceFailed})

	rec := doRequest(s, http.MethodGet, "/api/v1/constraints", "user-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListConstraints_Empty(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := doRequest(s, http.MethodGet, "/api/v1/constraints", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requests":[]}`, rec.Body.String())
}

func TestListConstraints_OK(t *testing.T) {
	c, err := schema.NewConstraint(schema.VariantTeam)
	require.NoError(t, err)
	c.Kind = schema.KindRivalries

	output := schema.NewStructuredOutput()
	output.Constraints = append(output.Constraints, c)

	h := &fakeHistory{rows: []store.Row{{
		ID:        "4f3a2e0a-0000-0000-0000-000000000001",
		UserID:    "user-1",
		CreatedAt: "2026-08-31T12:00:00Z",
		Output:    output,
	}}}
	s := newTestServerWithHistory(t, &fakeProcessor{}, h)

	rec := doRequest(s, http.MethodGet, "/api/v1/constraints", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", h.gotUserID)

	var got ListConstraintsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Requests, 1)
	assert.Equal(t, "4f3a2e0a-0000-0000-0000-000000000001", got.Requests[0].ID)
	require.Len(t, got.Requests[0].Output.Constraints, 1)
	assert.Equal(t, schema.KindRivalries, got.Requests[0].Output.Constraints[0].Kind)
}

func TestStructuredOutput_PersistenceFailureSurfaced(t *testing.T) {
	c, err := schema.NewConstraint(schema.VariantVenue)
	require.NoError(t, err)
	c.Kind = schema.KindHomeAway

	output := schema.NewStructuredOutput()
	output.Constraints = append(output.Constraints, c)
	output.Metadata["persistence"] = "failed"

	p := &fakeProcessor{result: &pipeline.Result{
		Output:         output,
		PersistenceErr: store.ErrPersistenceFailed,
	}}
	s := newTestServer(t, p)

	rec := doRequest(s, http.MethodPost, "/api/v1/chat/structured_output", "user-1",
		`{"messages":[{"role":"user","content":"home games only"}]}`)

	// The computed result still comes back, with the failure surfaced in
	// metadata.
	require.Equal(t, http.StatusOK, rec.Code)
	var got schema.StructuredOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Constraints, 1)
	assert.Equal(t, "failed", got.Metadata["persistence"])
}
