package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/corruptguard/helix/internal/domain/procurement"
	"github.com/corruptguard/helix/internal/ports"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"
)

// Defaults for ProcurementService.
const (
	DefaultResponsePath = "not_null(data, @)"
	DefaultHistoryLimit = 50
)

// Requester issues guarded API requests. SessionManager satisfies it.
type Requester interface {
	APIRequest(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error)
	BaseURL() string
}

// InvoiceDocument is a file pinned alongside a claim.
type InvoiceDocument struct {
	Name string
	Body io.Reader
}

// ProcurementServiceOptions groups dependencies for ProcurementService.
type ProcurementServiceOptions struct {
	Requester Requester // Required
	Documents ports.DocumentStore
	// ResponsePath is a JMESPath expression selecting the payload from each response.
	ResponsePath string
	HistoryLimit int
	Logger       *slog.Logger
}

// ProcurementService reads and writes fraud scoring and procurement data through the token guard.
type ProcurementService struct {
	requester    Requester
	documents    ports.DocumentStore
	responsePath jmespath.JMESPath
	historyLimit int
	logger       *slog.Logger
}

// NewProcurementService constructs a ProcurementService.
func NewProcurementService(opts ProcurementServiceOptions) (*ProcurementService, error) {
	if opts.Requester == nil {
		return nil, errors.New("requester is required")
	}
	path := strings.TrimSpace(opts.ResponsePath)
	if path == "" {
		path = DefaultResponsePath
	}
	compiled, err := jmespath.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid response path %q: %w", path, err)
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcurementService{
		requester:    opts.Requester,
		documents:    opts.Documents,
		responsePath: compiled,
		historyLimit: limit,
		logger:       logger.With("component", "procurement"),
	}, nil
}

// DetectFraud scores a claim.
func (s *ProcurementService) DetectFraud(ctx context.Context, req procurement.FraudDetectionRequest) (procurement.FraudDetectionResponse, error) {
	var out procurement.FraudDetectionResponse
	err := s.do(ctx, http.MethodPost, "/fraud/detect", req, &out)
	return out, err
}

// FraudHistory lists recent verdicts. A non-positive limit uses the configured default.
func (s *ProcurementService) FraudHistory(ctx context.Context, limit int) ([]procurement.FraudDetectionResponse, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	out := []procurement.FraudDetectionResponse{}
	err := s.do(ctx, http.MethodGet, "/fraud/history?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Claims lists all claims.
func (s *ProcurementService) Claims(ctx context.Context) ([]procurement.Claim, error) {
	out := []procurement.Claim{}
	err := s.do(ctx, http.MethodGet, "/icp/claims", nil, &out)
	return out, err
}

// Claim fetches one claim.
func (s *ProcurementService) Claim(ctx context.Context, id int64) (procurement.Claim, error) {
	var out procurement.Claim
	err := s.do(ctx, http.MethodGet, "/icp/claims/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// SubmitClaim creates a claim. A supplied invoice is pinned first and its hash recorded on the claim.
func (s *ProcurementService) SubmitClaim(ctx context.Context, claim procurement.ClaimSubmission, invoice *InvoiceDocument) (procurement.Claim, error) {
	if invoice != nil {
		if s.documents == nil {
			return procurement.Claim{}, errors.New("submit claim: document storage is not configured")
		}
		hash, err := s.documents.UploadDocument(ctx, invoice.Name, invoice.Body)
		if err != nil {
			return procurement.Claim{}, fmt.Errorf("pin invoice: %w", err)
		}
		claim.InvoiceHash = hash
		s.logger.InfoContext(ctx, "invoice pinned", "hash", hash, "url", s.documents.URL(hash))
	}
	var out procurement.Claim
	err := s.do(ctx, http.MethodPost, "/icp/claims", claim, &out)
	return out, err
}

// Budgets lists budgets.
func (s *ProcurementService) Budgets(ctx context.Context) ([]procurement.Budget, error) {
	out := []procurement.Budget{}
	err := s.do(ctx, http.MethodGet, "/icp/budgets", nil, &out)
	return out, err
}

// FraudAlerts lists ledger alerts.
func (s *ProcurementService) FraudAlerts(ctx context.Context) ([]procurement.FraudAlert, error) {
	out := []procurement.FraudAlert{}
	err := s.do(ctx, http.MethodGet, "/icp/fraud-alerts", nil, &out)
	return out, err
}

// SystemStats fetches ledger statistics.
func (s *ProcurementService) SystemStats(ctx context.Context) (procurement.SystemStats, error) {
	var out procurement.SystemStats
	err := s.do(ctx, http.MethodGet, "/icp/stats", nil, &out)
	return out, err
}

// Health queries the backend health endpoint, which is served at the host root.
func (s *ProcurementService) Health(ctx context.Context) (procurement.Health, error) {
	var out procurement.Health
	err := s.do(ctx, http.MethodGet, healthURL(s.requester.BaseURL()), nil, &out)
	return out, err
}

func healthURL(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "/health"
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/health"}).String()
}

// Overview fetches stats, budgets and alerts concurrently.
func (s *ProcurementService) Overview(ctx context.Context) (procurement.Overview, error) {
	var ov procurement.Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.SystemStats(gctx)
		ov.Stats = stats
		return err
	})
	g.Go(func() error {
		budgets, err := s.Budgets(gctx)
		ov.Budgets = budgets
		return err
	})
	g.Go(func() error {
		alerts, err := s.FraudAlerts(gctx)
		ov.Alerts = alerts
		return err
	})
	if err := g.Wait(); err != nil {
		return procurement.Overview{}, err
	}
	return ov, nil
}

func (s *ProcurementService) do(ctx context.Context, method, endpoint string, in, out any) error {
	opts := RequestOptions{Method: method}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		opts.Body = body
	}

	resp, err := s.requester.APIRequest(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	defer discard(resp)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ports.StatusError{Op: method + " " + endpoint, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	return s.decode(raw, out)
}

// decode selects the payload with the response path and decodes it into out.
func (s *ProcurementService) decode(raw []byte, out any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	selected, err := s.responsePath.Search(doc)
	if err != nil {
		return fmt.Errorf("evaluate response path: %w", err)
	}
	if selected == nil {
		return nil
	}
	b, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("re-encode payload: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
