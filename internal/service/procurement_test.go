package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/corruptguard/helix/internal/domain/procurement"
	"github.com/corruptguard/helix/internal/mocks"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type procurementFixture struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   map[string]string
	srv      *httptest.Server
	manager  *SessionManager
}

func newProcurementFixture(t *testing.T, routes map[string]string) *procurementFixture {
	t.Helper()
	pf := &procurementFixture{bodies: map[string]string{}}
	pf.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		pf.mu.Lock()
		pf.requests = append(pf.requests, r)
		pf.bodies[r.Method+" "+r.URL.Path] = string(b)
		pf.mu.Unlock()

		body, ok := routes[r.Method+" "+r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(pf.srv.Close)

	f := newFixture(t, pf.srv.URL+"/api/v1", nil)
	authenticate(t, f, walletSession("tok-1"))
	pf.manager = f.manager
	return pf
}

func newTestProcurementService(t *testing.T, r Requester, docs ports.DocumentStore) *ProcurementService {
	t.Helper()
	svc, err := NewProcurementService(ProcurementServiceOptions{Requester: r, Documents: docs})
	require.NoError(t, err)
	return svc
}

func TestNewProcurementService_Validation(t *testing.T) {
	_, err := NewProcurementService(ProcurementServiceOptions{})
	require.Error(t, err)

	pf := newProcurementFixture(t, nil)
	_, err = NewProcurementService(ProcurementServiceOptions{Requester: pf.manager, ResponsePath: "data[?"})
	assert.ErrorContains(t, err, "invalid response path")
}

func TestProcurementService_CustomResponsePath(t *testing.T) {
	pf := newProcurementFixture(t, nil)
	svc, err := NewProcurementService(ProcurementServiceOptions{Requester: pf.manager, ResponsePath: "result.payload"})
	require.NoError(t, err)
	require.NotNil(t, svc.responsePath)

	for _, tc := range []struct {
		raw  string
		want int
	}{
		{raw: `{"result":{"payload":{"active_claims":4}}}`, want: 4},
		{raw: `{"result":{"payload":{"active_claims":9}}}`, want: 9},
	} {
		var stats procurement.SystemStats
		require.NoError(t, svc.decode([]byte(tc.raw), &stats))
		assert.EqualValues(t, tc.want, stats.ActiveClaims)
	}

	var untouched procurement.SystemStats
	require.NoError(t, svc.decode([]byte(`{"data":{"active_claims":1}}`), &untouched))
	assert.Zero(t, untouched.ActiveClaims)
}

func TestProcurementService_DetectFraud(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"POST /api/v1/fraud/detect": `{"success":true,"data":{"claim_id":7,"score":0.82,"risk_level":"high","flags":["price_inflation"],"confidence":0.9}}`,
	})
	svc := newTestProcurementService(t, pf.manager, nil)

	out, err := svc.DetectFraud(context.Background(), procurement.FraudDetectionRequest{ClaimID: 7, VendorID: "v-1", Amount: 120000})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ClaimID)
	assert.Equal(t, procurement.RiskHigh, out.RiskLevel)
	assert.Equal(t, []string{"price_inflation"}, out.Flags)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(pf.bodies["POST /api/v1/fraud/detect"]), &sent))
	assert.Equal(t, "v-1", sent["vendor_id"])
	assert.Equal(t, "Bearer tok-1", pf.requests[0].Header.Get("Authorization"))
}

func TestProcurementService_Reads(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"GET /api/v1/fraud/history?limit=50": `{"data":[{"claim_id":1,"score":0.1,"risk_level":"low"}]}`,
		"GET /api/v1/fraud/history?limit=5":  `{"data":[]}`,
		"GET /api/v1/icp/claims":             `{"data":[{"claim_id":1,"vendor":"v","amount":10},{"claim_id":2}]}`,
		"GET /api/v1/icp/claims/2":           `{"data":{"claim_id":2,"flagged":true}}`,
		"GET /health":                        `{"status":"healthy","version":"1.0.0","services":{"api":"healthy"}}`,
	})
	svc := newTestProcurementService(t, pf.manager, nil)
	ctx := context.Background()

	history, err := svc.FraudHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, procurement.RiskLow, history[0].RiskLevel)

	history, err = svc.FraudHistory(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	claims, err := svc.Claims(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 2)

	claim, err := svc.Claim(ctx, 2)
	require.NoError(t, err)
	assert.True(t, claim.Flagged)

	health, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.Equal(t, "healthy", health.Services["api"])
}

func TestProcurementService_BareResponses(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"GET /api/v1/icp/stats": `{"total_budget":5000000,"active_claims":12,"flagged_claims":3,"total_challenges":1,"vendor_count":9}`,
	})
	svc := newTestProcurementService(t, pf.manager, nil)

	stats, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, procurement.SystemStats{TotalBudget: 5000000, ActiveClaims: 12, FlaggedClaims: 3, TotalChallenges: 1, VendorCount: 9}, stats)
}

func TestProcurementService_StatusError(t *testing.T) {
	pf := newProcurementFixture(t, nil)
	svc := newTestProcurementService(t, pf.manager, nil)

	_, err := svc.Budgets(context.Background())
	var se *ports.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestProcurementService_Overview(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"GET /api/v1/icp/stats":        `{"data":{"active_claims":4}}`,
		"GET /api/v1/icp/budgets":      `{"data":[{"budget_id":1,"amount":100,"purpose":"roads"}]}`,
		"GET /api/v1/icp/fraud-alerts": `{"data":[{"claim_id":3,"alert_type":"duplicate_invoice","severity":"high"}]}`,
	})
	svc := newTestProcurementService(t, pf.manager, nil)

	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, ov.Stats.ActiveClaims)
	require.Len(t, ov.Budgets, 1)
	assert.Equal(t, "roads", ov.Budgets[0].Purpose)
	require.Len(t, ov.Alerts, 1)
	assert.Equal(t, "duplicate_invoice", ov.Alerts[0].AlertType)
}

func TestProcurementService_OverviewFailsOnAnyError(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"GET /api/v1/icp/stats":   `{"data":{}}`,
		"GET /api/v1/icp/budgets": `{"data":[]}`,
	})
	svc := newTestProcurementService(t, pf.manager, nil)

	_, err := svc.Overview(context.Background())
	assert.Error(t, err)
}

func TestProcurementService_SubmitClaimPinsInvoice(t *testing.T) {
	pf := newProcurementFixture(t, map[string]string{
		"POST /api/v1/icp/claims": `{"data":{"claim_id":11,"vendor":"BuildCorp","invoice_hash":"QmInvoice"}}`,
	})
	ctrl := gomock.NewController(t)
	docs := mocks.NewMockDocumentStore(ctrl)
	invoice := bytes.NewBufferString("%PDF-1.7")
	docs.EXPECT().UploadDocument(gomock.Any(), "invoice-11.pdf", invoice).Return("QmInvoice", nil)
	docs.EXPECT().URL("QmInvoice").Return("https://gateway.example/ipfs/QmInvoice")

	svc := newTestProcurementService(t, pf.manager, docs)
	claim, err := svc.SubmitClaim(context.Background(),
		procurement.ClaimSubmission{Vendor: "BuildCorp", Amount: 250000, Deputy: "demo_deputy"},
		&InvoiceDocument{Name: "invoice-11.pdf", Body: invoice},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(11), claim.ClaimID)

	var sent procurement.ClaimSubmission
	require.NoError(t, json.Unmarshal([]byte(pf.bodies["POST /api/v1/icp/claims"]), &sent))
	assert.Equal(t, "QmInvoice", sent.InvoiceHash)
	assert.Equal(t, "BuildCorp", sent.Vendor)
}

func TestProcurementService_SubmitClaimPinFailure(t *testing.T) {
	pf := newProcurementFixture(t, nil)
	ctrl := gomock.NewController(t)
	docs := mocks.NewMockDocumentStore(ctrl)
	docs.EXPECT().UploadDocument(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("pinata: 401"))

	svc := newTestProcurementService(t, pf.manager, docs)
	_, err := svc.SubmitClaim(context.Background(), procurement.ClaimSubmission{}, &InvoiceDocument{Name: "x", Body: strings.NewReader("x")})
	require.ErrorContains(t, err, "pin invoice")
	assert.Empty(t, pf.requests)

	svc = newTestProcurementService(t, pf.manager, nil)
	_, err = svc.SubmitClaim(context.Background(), procurement.ClaimSubmission{}, &InvoiceDocument{Name: "x", Body: strings.NewReader("x")})
	assert.ErrorContains(t, err, "document storage is not configured")
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/health", healthURL("http://localhost:8000/api/v1"))
	assert.Equal(t, "/health", healthURL(""))
}
