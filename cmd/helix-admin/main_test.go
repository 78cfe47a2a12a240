package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/bootstrap"
	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/domain/procurement"
	"github.com/corruptguard/helix/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineContext(t *testing.T) (*commandContext, *bytes.Buffer) {
	t.Helper()
	t.Setenv("BACKEND_MODE", "offline")
	t.Setenv("AUTH_MODE", "demo")
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	cfg, err := bootstrap.LoadConfig()
	require.NoError(t, err)

	var out bytes.Buffer
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.DiscardHandler),
		Config: cfg,
		Out:    &out,
	}, &out
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	for name := range commands() {
		assert.Contains(t, buf.String(), "  "+name)
	}
	assert.Less(t, strings.Index(buf.String(), "alerts"), strings.Index(buf.String(), "whoami"))
}

func TestDemoLogin_OfflineTokenDoesNotOutliveProcess(t *testing.T) {
	cmdCtx, out := offlineContext(t)

	require.NoError(t, runDemoLogin(cmdCtx, []string{"--role", "vendor", "--principal", "vendor-7"}))
	assert.Contains(t, out.String(), "vendor-7")
	assert.Contains(t, out.String(), "Mode:")

	// Each command builds a fresh offline backend, which never issued the stored token.
	out.Reset()
	require.NoError(t, runWhoAmI(cmdCtx, nil))
	assert.Equal(t, "Not logged in.\n", out.String())

	out.Reset()
	require.NoError(t, runLogout(cmdCtx, nil))
	assert.Contains(t, out.String(), "Backend logout: ok")
	assert.Contains(t, out.String(), "Stored slots:   ok")
}

func TestRefresh_RequiresSession(t *testing.T) {
	cmdCtx, _ := offlineContext(t)
	assert.ErrorContains(t, runRefresh(cmdCtx, nil), "no session to refresh")
}

func TestClearSession(t *testing.T) {
	cmdCtx, out := offlineContext(t)
	require.NoError(t, runDemoLogin(cmdCtx, []string{"--role", "auditor"}))

	out.Reset()
	require.NoError(t, runClearSession(cmdCtx, []string{"--yes"}))
	assert.Contains(t, out.String(), "Session slots cleared.")

	out.Reset()
	require.NoError(t, runWhoAmI(cmdCtx, nil))
	assert.Equal(t, "Not logged in.\n", out.String())
}

func TestParseDemoLoginFlags(t *testing.T) {
	opts, err := parseDemoLoginFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCitizen, opts.Role)

	_, err = parseDemoLoginFlags([]string{"--role", "mayor"})
	assert.ErrorContains(t, err, "--role")
}

func TestParseFraudDetectFlags(t *testing.T) {
	req, err := parseFraudDetectFlags([]string{"--vendor", "v-1", "--amount", "125000", "--claim-id", "7", "--area", "north"})
	require.NoError(t, err)
	assert.Equal(t, procurement.FraudDetectionRequest{ClaimID: 7, VendorID: "v-1", Amount: 125000, Area: "north"}, req)

	_, err = parseFraudDetectFlags([]string{"--amount", "1"})
	assert.ErrorContains(t, err, "--vendor")

	_, err = parseFraudDetectFlags([]string{"--vendor", "v-1"})
	assert.ErrorContains(t, err, "--amount")
}

func TestParseSubmitClaimFlags(t *testing.T) {
	opts, err := parseSubmitClaimFlags([]string{"--vendor", "v-1", "--amount", "10", "--invoice", "inv.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "inv.pdf", opts.Invoice)

	_, err = parseSubmitClaimFlags([]string{"--vendor", "v-1", "--amount", "10", "--invoice", "a", "--invoice-hash", "Qm"})
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	opts, err = parseMigrateFlags([]string{"--timeout", "30s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	assert.Error(t, err)
}

func TestPrintCleanup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCleanup(&buf, service.CleanupResult{
		BackendErr: errors.New("503"),
		Notify:     service.NotifyResult{Delivered: 1, Failures: []service.ListenerFailure{{Panic: "boom"}}},
	}))

	assert.Contains(t, buf.String(), "Backend logout: failed: 503")
	assert.Contains(t, buf.String(), "Stored slots:   ok")
	assert.Contains(t, buf.String(), "1 delivered, 1 failed")
}

func TestPrintDemoUsers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDemoUsers(&buf, nil))
	assert.Equal(t, "No demo users available.\n", buf.String())

	buf.Reset()
	require.NoError(t, printDemoUsers(&buf, []domainauth.DemoUser{
		{PrincipalID: "demo_deputy", Role: domainauth.RoleDeputy, Name: "Deputy", Available: true},
	}))
	assert.Contains(t, buf.String(), "demo_deputy")
	assert.Contains(t, buf.String(), "deputy")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, confirm(&out, strings.NewReader(""), true, "x"))
	assert.Empty(t, out.String())

	assert.NoError(t, confirm(&out, strings.NewReader("y\n"), false, "clear slots"))
	assert.Contains(t, out.String(), "About to clear slots")

	assert.ErrorContains(t, confirm(&out, strings.NewReader("n\n"), false, "x"), "aborted")
	assert.ErrorContains(t, confirm(&out, strings.NewReader(""), false, "x"), "aborted")
}

func TestDescribeStore(t *testing.T) {
	cfg := config.AppConfig{Storage: config.StorageConfig{Kind: config.StoreKindRedis, RedisPrefix: "helix:session:"}}
	assert.Equal(t, "redis prefix helix:session:", describeStore(&cfg))

	cfg.Storage.Kind = config.StoreKindMemory
	assert.Equal(t, "memory store", describeStore(&cfg))
}

func TestPrintMigrations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMigrations(&buf, nil))
	assert.Equal(t, "Schema is up to date.\n", buf.String())

	buf.Reset()
	require.NoError(t, printMigrations(&buf, []string{"0001_create_session_slots"}))
	assert.Equal(t, "Applied 0001_create_session_slots\n", buf.String())
}
