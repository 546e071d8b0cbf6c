package edge

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/adapters/ledger"
	"github.com/layer-3/taskchain/adapters/store"
	"github.com/layer-3/taskchain/adapters/tokenizer"
	"github.com/layer-3/taskchain/adapters/wallet"
	"github.com/layer-3/taskchain/devledger"
	"github.com/layer-3/taskchain/log"
	"github.com/layer-3/taskchain/service"
	ledgerhttp "github.com/layer-3/taskchain/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRID = "D2215C73F242D307DBE10C0AE58A14425428420DAEB0514ED5669204252B030E"

// 2025-03-14 23:30 in UTC-5 is already the 15th in UTC
var testNow = time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

type testEdge struct {
	router    *gin.Engine
	sessions  *service.SessionContext
	refresher *service.Refresher
}

func newTestEdge(t *testing.T) *testEdge {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	node := httptest.NewServer(ledgerhttp.SetupRouter(devledger.New(devledger.Options{
		Tokenizer: tokenizer.NewJWTTokenizer(signKey),
		Store:     store.NewMemoryStore(),
		Logger:    log.Discard(),
	}), testRID, log.Discard()))
	t.Cleanup(node.Close)

	client, err := ledger.NewClient(ledger.Config{
		NodeURLPool:   []string{node.URL},
		BlockchainRID: testRID,
		Logger:        log.Discard(),
	})
	require.NoError(t, err)

	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	sessions := service.NewSessionContext(nil, log.Discard())
	negotiator := service.NewNegotiator(service.NegotiatorConfig{
		Detect:      wallet.Detector(wallet.Source{PrivateKeyHex: hex.EncodeToString(crypto.FromECDSA(walletKey))}, nil),
		Bind:        wallet.BindKeyStore,
		Ledger:      client,
		Sessions:    sessions,
		DisplayName: service.RandomDisplayName,
		Logger:      log.Discard(),
	})
	gateway := service.NewTaskGateway(sessions, log.Discard())
	refresher := service.NewRefresher(service.RefresherConfig{
		Gateway:  gateway,
		Sessions: sessions,
		Interval: time.Hour,
		Logger:   log.Discard(),
	})

	return &testEdge{
		router: SetupRouter(Config{
			Auth:      negotiator,
			Sessions:  sessions,
			Gateway:   gateway,
			Refresher: refresher,
			Now:       func() time.Time { return testNow },
			Logger:    log.Discard(),
		}),
		sessions:  sessions,
		refresher: refresher,
	}
}

func (e *testEdge) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEdge) tasks(t *testing.T, filter string) []Task {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/tasks?filter="+filter, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[taskPage](t, rec).Tasks
}

func TestEdge_RequiresSession(t *testing.T) {
	e := newTestEdge(t)

	for _, path := range []string{"/api/me", "/api/tasks", "/api/tasks/view"} {
		rec := e.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		body := decode[errorBody](t, rec)
		assert.Equal(t, CodeNoSession, body.Error.Code)
		assert.Equal(t, "Please log in first", body.Error.Message)
	}

	rec := e.do(t, http.MethodPost, "/api/tasks", taskRequest{Title: "Buy milk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEdge_LoginRegistersThenLogsIn(t *testing.T) {
	e := newTestEdge(t)

	rec := e.do(t, http.MethodPost, "/auth/login", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[map[string]any](t, rec)
	assert.Equal(t, "register", first["path"])
	assert.Equal(t, service.HomeRoute, first["redirect"])

	rec = e.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/me", nil).Code)

	rec = e.do(t, http.MethodPost, "/auth/login", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[map[string]any](t, rec)
	assert.Equal(t, "login", second["path"])
	assert.Equal(t, first["account_id"], second["account_id"])

	rec = e.do(t, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, first["account_id"], me["account_id"])
	assert.Equal(t, "established", me["state"])
}

func TestEdge_TaskLifecycle(t *testing.T) {
	e := newTestEdge(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/login", nil).Code)

	rec := e.do(t, http.MethodPost, "/api/tasks", taskRequest{Title: "Buy milk", Description: "two litres"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	all := e.tasks(t, "all")
	require.Len(t, all, 1)
	milk := all[0]
	assert.Equal(t, "Buy milk", milk.Title)
	assert.Equal(t, "2025-03-15", milk.DueDate)
	assert.False(t, milk.Completed)

	rec = e.do(t, http.MethodPut, "/api/tasks/"+milk.ID, taskRequest{Title: "Buy oat milk", DueDate: "2025-04-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/tasks/"+milk.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	completed := e.tasks(t, "completed")
	require.Len(t, completed, 1)
	assert.Equal(t, "Buy oat milk", completed[0].Title)
	assert.Equal(t, "2025-04-01", completed[0].DueDate)
	assert.Empty(t, e.tasks(t, "pending"))

	require.Eventually(t, func() bool {
		view := e.refresher.View()
		return len(view.Completed.Tasks) == 1 && len(view.Pending.Tasks) == 0
	}, 2*time.Second, 10*time.Millisecond)

	rec = e.do(t, http.MethodGet, "/api/tasks/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/tasks/"+milk.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, e.tasks(t, "all"))

	rec = e.do(t, http.MethodPost, "/api/tasks/"+milk.ID+"/complete", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeRemoteCall, decode[errorBody](t, rec).Error.Code)
}

func TestEdge_InvalidInput(t *testing.T) {
	e := newTestEdge(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/login", nil).Code)

	tcs := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "missing title", method: http.MethodPost, path: "/api/tasks", body: taskRequest{DueDate: "2025-03-14"}},
		{name: "bad date", method: http.MethodPost, path: "/api/tasks", body: taskRequest{Title: "x", DueDate: "tomorrow"}},
		{name: "update without date", method: http.MethodPut, path: "/api/tasks/t1", body: taskRequest{Title: "x"}},
		{name: "unknown filter", method: http.MethodGet, path: "/api/tasks?filter=overdue"},
		{name: "negative pointer", method: http.MethodGet, path: "/api/tasks?pointer=-1"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeInvalidInput, decode[errorBody](t, rec).Error.Code)
		})
	}
}
