package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"yashubustudio/segmenter/segmenter"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T) *segmenter.Service {
	t.Helper()
	cfg := segmenter.DefaultConfig()
	cfg.Artifacts = segmenter.ArtifactConfig{
		ScalerPath:  "../../segmenter/testdata/scaler.json",
		ModelPath:   "../../segmenter/testdata/kmeans_model.json",
		SummaryPath: "../../segmenter/testdata/cluster_summary.csv",
	}
	svc, err := segmenter.NewService(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newTestServer(t *testing.T, pred Predictor) *Server {
	t.Helper()
	srv, err := New(pred, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPredictDefaults(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	body, err := json.Marshal(segmenter.DefaultFeatureVector())
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/predict", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var rm segmenter.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Equal(t, segmenter.ClusterID(3), rm.ClusterID)
	assert.Equal(t, "Digital Enthusiasts", rm.Profile.Name)
	assert.Equal(t, 3, rm.Comparison.Highlight)
}

func TestPredictPartialBodyUsesDefaults(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	rec := do(t, srv.Handler(), http.MethodPost, "/v1/predict",
		`{"age": 29, "income": 20000, "totalSpending": 50, "numWebPurchases": 1, "numStorePurchases": 2, "numWebVisitsMonth": 7, "recency": 45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var rm segmenter.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Equal(t, segmenter.ClusterID(0), rm.ClusterID)

	rec = do(t, srv.Handler(), http.MethodPost, "/v1/predict", `{"age": 40}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Equal(t, 40.0, rm.Input.Age)
	assert.Equal(t, 50000.0, rm.Input.Income)
}

func TestPredictRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/v1/predict", `{"age": 35,`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/predict", `{"height": 180}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/predict", `{"age": 17}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, segmenter.FeatureAge, resp.Field)

	rec = do(t, h, http.MethodPost, "/v1/predict?clamp=true", `{"age": 17, "recency": 400}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var rm segmenter.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Equal(t, 18.0, rm.Input.Age)
	assert.Equal(t, 365.0, rm.Input.Recency)

	rec = do(t, h, http.MethodGet, "/v1/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type brokenPredictor struct{}

func (brokenPredictor) HandlePredictionRequest(segmenter.FeatureVector) (segmenter.RenderModel, error) {
	return segmenter.RenderModel{}, &segmenter.ConfigMismatchError{ClusterID: 2, Table: "segment catalog", Reason: "has no entry"}
}

func (brokenPredictor) Legend() []segmenter.LegendEntry { return nil }
func (brokenPredictor) Comparison() segmenter.ComparisonTable { return segmenter.ComparisonTable{} }

func TestPredictConfigMismatch(t *testing.T) {
	srv := newTestServer(t, brokenPredictor{})
	rec := do(t, srv.Handler(), http.MethodPost, "/v1/predict", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "segment catalog")
}

func TestSegmentsAndSummary(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/v1/segments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var legend []segmenter.LegendEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legend))
	require.Len(t, legend, 4)
	assert.Equal(t, "VIP Customers", legend[1].Profile.Name)

	rec = do(t, h, http.MethodGet, "/v1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table segmenter.ComparisonTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Rows, 4)
	assert.Equal(t, -1, table.Highlight)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	h := srv.Handler()

	do(t, h, http.MethodPost, "/v1/predict", `{}`)
	do(t, h, http.MethodPost, "/v1/predict", `{}`)
	do(t, h, http.MethodPost, "/v1/predict", `{"income": -1}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `segmenter_predictions_total{cluster="3"} 2`)
	assert.Contains(t, body, `segmenter_rejected_inputs_total{field="Income"} 1`)
	assert.Contains(t, body, "segmenter_prediction_duration_seconds_count 2")
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(brokenPredictor{}, reg, nil)
	require.NoError(t, err)
	_, err = New(brokenPredictor{}, reg, nil)
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, newTestService(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{}, Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+ln.Addr().String()+"/v1/predict", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
