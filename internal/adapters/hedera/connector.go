package hedera

// Package hedera connects a configured Hedera account by confirming it exists on a mirror node.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
)

var _ ports.WalletConnector = (*Connector)(nil)

var mirrorNodes = map[string]string{
	"mainnet":    "https://mainnet-public.mirrornode.hedera.com",
	"testnet":    "https://testnet.mirrornode.hedera.com",
	"previewnet": "https://previewnet.mirrornode.hedera.com",
}

var accountIDPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ErrNoAccount is returned when no account ID is configured.
var ErrNoAccount = errors.New("no hedera account configured")

// Config holds the connector settings.
type Config struct {
	AccountID string
	Network   string
	// MirrorURL overrides the network's public mirror node.
	MirrorURL  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Connector resolves the configured account on the mirror node.
type Connector struct {
	accountID string
	network   string
	mirrorURL string
	client    *http.Client
	logger    *slog.Logger

	mu        sync.Mutex
	connected *domainauth.WalletAccount
}

// MirrorURLFor returns the public mirror node for network.
func MirrorURLFor(network string) (string, bool) {
	u, ok := mirrorNodes[strings.ToLower(strings.TrimSpace(network))]
	return u, ok
}

// ValidAccountID reports whether id has the shard.realm.num form.
func ValidAccountID(id string) bool {
	return accountIDPattern.MatchString(id)
}

// NewConnector validates cfg and returns a Connector.
func NewConnector(cfg Config) (*Connector, error) {
	network := strings.ToLower(strings.TrimSpace(cfg.Network))
	if network == "" {
		network = "testnet"
	}
	mirror := strings.TrimRight(strings.TrimSpace(cfg.MirrorURL), "/")
	if mirror == "" {
		var ok bool
		if mirror, ok = MirrorURLFor(network); !ok {
			return nil, fmt.Errorf("unknown hedera network %q", network)
		}
	}
	if _, err := url.Parse(mirror); err != nil {
		return nil, fmt.Errorf("parse mirror url: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		accountID: strings.TrimSpace(cfg.AccountID),
		network:   network,
		mirrorURL: mirror,
		client:    hc,
		logger:    logger.With("component", "hedera_wallet"),
	}, nil
}

type mirrorAccount struct {
	Account string `json:"account"`
	Deleted bool   `json:"deleted"`
}

// Connect looks the account up and returns it. A missing, deleted or malformed account is rejected.
func (c *Connector) Connect(ctx context.Context) (domainauth.WalletAccount, error) {
	if c.accountID == "" {
		return domainauth.WalletAccount{}, ErrNoAccount
	}
	if !ValidAccountID(c.accountID) {
		return domainauth.WalletAccount{}, apperrors.ValidationField("account_id",
			fmt.Sprintf("invalid hedera account id %q", c.accountID))
	}

	endpoint, err := url.JoinPath(c.mirrorURL, "api", "v1", "accounts", c.accountID)
	if err != nil {
		return domainauth.WalletAccount{}, fmt.Errorf("build mirror url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domainauth.WalletAccount{}, fmt.Errorf("create mirror request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domainauth.WalletAccount{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "mirror node request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domainauth.WalletAccount{}, apperrors.NotFoundf("hedera account %s not found on %s", c.accountID, c.network)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domainauth.WalletAccount{}, apperrors.Unavailablef("mirror node %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var acct mirrorAccount
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return domainauth.WalletAccount{}, fmt.Errorf("decode mirror account: %w", err)
	}
	if acct.Account != c.accountID {
		return domainauth.WalletAccount{}, fmt.Errorf("mirror node returned account %q, want %q", acct.Account, c.accountID)
	}
	if acct.Deleted {
		return domainauth.WalletAccount{}, apperrors.Validationf("hedera account %s is deleted", c.accountID)
	}

	account := domainauth.WalletAccount{AccountID: acct.Account, Network: c.network}
	c.mu.Lock()
	c.connected = &account
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "wallet connected", "account_id", account.AccountID, "network", account.Network)
	return account, nil
}

// Disconnect forgets the connected account. It is safe to call when not connected.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	was := c.connected
	c.connected = nil
	c.mu.Unlock()
	if was != nil {
		c.logger.InfoContext(ctx, "wallet disconnected", "account_id", was.AccountID)
	}
	return nil
}

// Connected returns the currently connected account, if any.
func (c *Connector) Connected() (domainauth.WalletAccount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected == nil {
		return domainauth.WalletAccount{}, false
	}
	return *c.connected, true
}
