package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railway-gateway/internal/common/config"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/gateway"
	"railway-gateway/internal/stations"
)

// stubProvider answers every upstream call with one canned body.
type stubProvider struct {
	body []byte
	err  error
}

func (p *stubProvider) answer() ([]byte, error) { return p.body, p.err }

func (p *stubProvider) PNRStatus(context.Context, string) ([]byte, error) { return p.answer() }
func (p *stubProvider) LiveStation(context.Context, string, string, int) ([]byte, error) {
	return p.answer()
}
func (p *stubProvider) TrainSchedule(context.Context, string) ([]byte, error) { return p.answer() }
func (p *stubProvider) Fare(context.Context, string, string, string, string) ([]byte, error) {
	return p.answer()
}
func (p *stubProvider) LiveTrainStatus(context.Context, string, string) ([]byte, error) {
	return p.answer()
}
func (p *stubProvider) SeatAvailability(context.Context, string, string, string, string) ([]byte, error) {
	return p.answer()
}
func (p *stubProvider) SearchTrains(context.Context, string, string, string) ([]byte, error) {
	return p.answer()
}

func newTestServer(t *testing.T, p gateway.Provider) *Server {
	t.Helper()
	log := logger.NewTestLogger(t)
	d := gateway.New(
		stations.NewDirectory(nil, nil),
		p,
		config.GatewayConfig{MaxInFlight: 4, DefaultWindow: 4, DispatchTimeout: 5000},
		log,
	)
	return New(config.ServerConfig{Address: ":0"}, d, log)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodGet, "/v1/tools", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools []struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 8)
	assert.Equal(t, "get_pnr_status", resp.Tools[0].Function.Name)
}

func TestServer_DispatchResolveStationCode(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/resolve_station_code", `{"name":"Delhi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Operation string `json:"operation"`
		Data      struct {
			Codes []string `json:"codes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "resolve_station_code", resp.Operation)
	assert.Equal(t, []string{"NDLS", "ANVT", "DLI", "DEE", "DEC", "SZM"}, resp.Data.Codes)
}

func TestServer_ValidationErrorIs400(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/get_pnr_status", `{"pnr":"12345"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.False(t, resp.Error.Retryable)
}

func TestServer_UnknownOperationIs400(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/teleport_train", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ResolutionErrorIs422(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/resolve_station_code", `{"name":"Atlantis"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_UpstreamDataErrorIs502(t *testing.T) {
	s := newTestServer(t, &stubProvider{body: []byte(`{"data":null}`)})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/get_pnr_status", `{"pnr":"1234567890"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestServer_DispatchSuccess(t *testing.T) {
	s := newTestServer(t, &stubProvider{body: []byte(`{"data":{
		"trainNumber":"12452","trainName":"Shram Shakti Express",
		"passengers":[{"currentStatus":"CNF/B2/32"}]}}`)})
	w := doJSON(t, s, http.MethodPost, "/v1/tools/get_pnr_status", `{"pnr":"1234567890"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RequestID string `json:"requestId"`
		Data      struct {
			TrainNumber string `json:"trainNumber"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "12452", resp.Data.TrainNumber)
}

func TestServer_MetricsExposed(t *testing.T) {
	s := newTestServer(t, &stubProvider{})
	w := doJSON(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
