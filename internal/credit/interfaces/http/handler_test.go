package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KostasCherv/protocol-analysis/internal/credit/application"
	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
	"github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/messaging"
	"github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/persistence/memory"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	world, oracle := application.NewDemoWorld(
		domain.DefaultRiskConfig(), domain.DefaultRateModelParams(), domain.DefaultStrategyConfig())
	app := application.NewCreditAppService(world, oracle,
		memory.NewCreditAccountRepo(), memory.NewPoolRepo(),
		messaging.NewLogEventPublisher(logger), logger)

	r := gin.New()
	NewCreditHandler(app).RegisterRoutes(&r.RouterGroup)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreditHandler_ListAccounts(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/credit/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	accounts, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, accounts, 4)
}

func TestCreditHandler_GetPool(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/credit/pool", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	pool, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USDC", pool["asset"])
	assert.Equal(t, "200000", pool["total_borrowed"])
}

func TestCreditHandler_OpenAccount(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/credit/accounts", gin.H{
		"owner":            "0xeve1",
		"collateral_asset": "ETH",
		"collateral":       "2",
		"initial_borrow":   "1000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	account, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CA-5", account["account_id"])
	assert.Equal(t, "OPEN", account["status"])
}

func TestCreditHandler_OpenAccountBelowThreshold(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/credit/accounts", gin.H{
		"owner":            "0xeve1",
		"collateral_asset": "ETH",
		"collateral":       "1",
		"initial_borrow":   "100000",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreditHandler_OpenAccountBadRequest(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/credit/accounts", gin.H{
		"collateral_asset": "ETH",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreditHandler_AccountNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/credit/accounts/CA-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreditHandler_OwnerForbidden(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/credit/accounts/CA-1/borrow", gin.H{
		"owner":  "0xmallory",
		"amount": "100",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreditHandler_AdvanceAndPrices(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/credit/time/advance", gin.H{"days": 30})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	result, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 30, result["current_day"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/credit/prices/drop", gin.H{
		"asset":   "ETH",
		"percent": "150",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/credit/prices/drop", gin.H{
		"asset":   "ETH",
		"percent": "95",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// bob at 100k debt against a crashed collateral book is now liquidatable
	w = doJSON(t, r, http.MethodPost, "/api/v1/credit/accounts/CA-2/liquidate", gin.H{
		"beneficiary": "treasury",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/credit/prices/revert", gin.H{"asset": "ETH"})
	assert.Equal(t, http.StatusOK, w.Code)
}
