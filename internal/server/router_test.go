package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edgeflag/edgeflag/internal/api"
	ddb "github.com/edgeflag/edgeflag/internal/database/dynamodb"
	"github.com/edgeflag/edgeflag/internal/services"
	"github.com/edgeflag/edgeflag/internal/testutil"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIdentitiesTable   = "test-identities-table"
	testEnvironmentsTable = "test-environments-table"
)

// testServer wires a full router over the in-memory store.
type testServer struct {
	router     *Router
	mockClient *ddb.MockClient
	identities *ddb.IdentityRepository
}

func newTestServer() *testServer {
	mockClient := ddb.NewMockClient()
	log := testutil.SilentLogger()
	identities := ddb.NewIdentityRepository(mockClient, testIdentitiesTable, log)
	environments := ddb.NewEnvironmentRepository(mockClient, testEnvironmentsTable, log)

	router := NewRouter(
		services.NewIdentityService(identities, log),
		services.NewAnalyticsService(identities, log, 0, 100),
		services.NewSegmentService(identities, environments, log),
		log,
		5*time.Second,
		100,
	)

	return &testServer{
		router:     router,
		mockClient: mockClient,
		identities: identities,
	}
}

func (ts *testServer) request(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedIdentity(t *testing.T, doc *api.IdentityDocument) {
	t.Helper()
	require.NoError(t, ts.identities.Put(context.Background(), doc))
}

func (ts *testServer) seedEnvironment(t *testing.T, doc api.EnvironmentDocument) {
	t.Helper()
	item, err := attributevalue.MarshalMap(doc)
	require.NoError(t, err)
	if ts.mockClient.Tables[testEnvironmentsTable] == nil {
		ts.mockClient.Tables[testEnvironmentsTable] = make(map[string]map[string]types.AttributeValue)
	}
	ts.mockClient.Tables[testEnvironmentsTable][doc.APIKey] = item
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer()

	rec := ts.request(t, http.MethodGet, "/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_RequestID(t *testing.T) {
	t.Run("upstream header is honored and echoed", func(t *testing.T) {
		ts := newTestServer()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set(requestIDHeader, "upstream-id")
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, "upstream-id", rec.Header().Get(requestIDHeader))
	})

	t.Run("generated when absent", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.request(t, http.MethodGet, "/api/v1/health", nil)

		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})
}

func TestRouter_UnknownRoute(t *testing.T) {
	ts := newTestServer()

	rec := ts.request(t, http.MethodGet, "/api/v1/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
