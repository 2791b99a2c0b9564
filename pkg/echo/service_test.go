package echo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	matchfund "github.com/matchfund/matchfund/go"
	"github.com/matchfund/matchfund/go/transfer/banktest"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	coordinator := matchfund.NewCoordinator(matchfund.NewInMemoryLedger(), banktest.New(banktest.Succeed))
	e := echo.New()
	NewService(coordinator).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestOfferThenRescind(t *testing.T) {
	e := newTestServer(t)

	w := doJSON(e, http.MethodPost, "/offer",
		`{"account":"alice","recipient":"fundraiser","amount":"0.3"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(e, http.MethodPost, "/rescind",
		`{"account":"alice","recipient":"fundraiser","amount":"0.1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "200000000000000000000000", resp["remainingBaseUnits"])
}

func TestMissingFieldsRejected(t *testing.T) {
	e := newTestServer(t)
	w := doJSON(e, http.MethodPost, "/offer", `{"account":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRecipientIs404(t *testing.T) {
	e := newTestServer(t)
	w := doJSON(e, http.MethodPost, "/rescind",
		`{"account":"alice","recipient":"nobody","amount":"0.1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCommitments(t *testing.T) {
	e := newTestServer(t)

	w := doJSON(e, http.MethodPost, "/offer",
		`{"account":"alice","recipient":"fundraiser","amount":"0.3"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(e, http.MethodGet, "/commitments/fundraiser", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Commitments map[string]string `json:"commitments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "300000000000000000000000", resp.Commitments["alice"])
}
