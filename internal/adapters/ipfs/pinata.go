package ipfs

// Package ipfs pins claim documents and evidence through the Pinata pinning API.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/google/uuid"
)

var _ ports.DocumentStore = (*PinataClient)(nil)

// ErrMissingCredentials is returned when no Pinata key pair is configured.
var ErrMissingCredentials = errors.New("pinata api key and secret are required")

// Config holds Pinata connection settings. Credentials come from configuration only.
type Config struct {
	APIURL     string
	GatewayURL string
	APIKey     string
	SecretKey  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PinataClient implements ports.DocumentStore.
type PinataClient struct {
	apiURL    string
	gateway   string
	apiKey    string
	secretKey string
	client    *http.Client
	newName   func() string
}

// NewPinataClient validates cfg and returns a client.
func NewPinataClient(cfg Config) (*PinataClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrMissingCredentials
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = "https://api.pinata.cloud"
	}
	gateway := strings.TrimSpace(cfg.GatewayURL)
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud/ipfs/"
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &PinataClient{
		apiURL:    apiURL,
		gateway:   gateway,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		secretKey: strings.TrimSpace(cfg.SecretKey),
		client:    hc,
		newName:   func() string { return "helix-" + uuid.NewString() },
	}, nil
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinJSONRequest struct {
	PinataContent  any         `json:"pinataContent"`
	PinataMetadata pinMetadata `json:"pinataMetadata"`
}

// UploadDocument pins r as a file named name and returns its content hash.
func (p *PinataClient) UploadDocument(ctx context.Context, name string, r io.Reader) (string, error) {
	if r == nil {
		return "", apperrors.ValidationField("file", "document body is required")
	}
	if name == "" {
		name = p.newName()
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	meta, err := json.Marshal(pinMetadata{Name: name})
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	return p.pin(ctx, "pin file", "/pinning/pinFileToIPFS", mw.FormDataContentType(), &buf)
}

// UploadJSON pins v as a JSON document and returns its content hash.
func (p *PinataClient) UploadJSON(ctx context.Context, name string, v any) (string, error) {
	if name == "" {
		name = p.newName() + ".json"
	}
	body, err := json.Marshal(pinJSONRequest{PinataContent: v, PinataMetadata: pinMetadata{Name: name}})
	if err != nil {
		return "", fmt.Errorf("encode pin request: %w", err)
	}
	return p.pin(ctx, "pin json", "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(body))
}

// URL returns the public gateway URL for hash.
func (p *PinataClient) URL(hash string) string {
	return p.gateway + hash
}

func (p *PinataClient) pin(ctx context.Context, op, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+path, body)
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "%s request failed", op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &ports.StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("%s: response carried no IpfsHash", op)
	}
	return out.IpfsHash, nil
}
