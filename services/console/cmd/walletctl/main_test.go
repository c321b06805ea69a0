package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haitiwallet/console/libs/logging"
	"github.com/haitiwallet/console/services/console/internal/config"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/testutil"
	"github.com/haitiwallet/console/services/console/internal/views"
)

func testConfig() *config.Config {
	return &config.Config{
		Backend:    config.BackendConfig{Timeout: 5 * time.Second},
		PublicURL:  "http://console.test",
		FXFallback: state.DefaultFX(),
		PageSize:   views.DefaultPageSize,
		StatsDays:  30,
		Payments:   views.DefaultPayments(),
	}
}

func newTestApp(t *testing.T, fake *testutil.FakeBackend, sessionFile string) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	a, err := newApp(fake.URL(), sessionFile, testConfig(), logging.Discard(), out)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, out
}

func TestLoginPersistsSessionAcrossInvocations(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()
	file := filepath.Join(t.TempDir(), "session.json")

	a, out := newTestApp(t, fake, file)
	if err := a.run(context.Background(), []string{"login", testutil.DemoEmail, testutil.DemoPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), testutil.DemoEmail) {
		t.Fatalf("expected identity after login, got %q", out.String())
	}

	next, out := newTestApp(t, fake, file)
	if err := next.run(context.Background(), []string{"whoami"}); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "HTG 1000.00 | USD 10.00") {
		t.Fatalf("expected wallet line, got %q", out.String())
	}
}

func TestLoginRejected(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()

	a, _ := newTestApp(t, fake, filepath.Join(t.TempDir(), "session.json"))
	err := a.run(context.Background(), []string{"login", testutil.DemoEmail, "wrong-pass"})
	if err == nil || err.Error() != "Identifiants invalides" {
		t.Fatalf("expected backend detail, got %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()
	file := filepath.Join(t.TempDir(), "session.json")

	a, _ := newTestApp(t, fake, file)
	if err := a.run(context.Background(), []string{"login", testutil.DemoEmail, testutil.DemoPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.run(context.Background(), []string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}

	next, out := newTestApp(t, fake, file)
	if err := next.run(context.Background(), []string{"whoami"}); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Non connecté" {
		t.Fatalf("expected logged out, got %q", out.String())
	}
}

func TestFeePreview(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()

	a, out := newTestApp(t, fake, filepath.Join(t.TempDir(), "session.json"))
	if err := a.run(context.Background(), []string{"fee", "45", "USD"}); err != nil {
		t.Fatalf("fee: %v", err)
	}
	if strings.TrimSpace(out.String()) != "3.00 USD" {
		t.Fatalf("unexpected fee output %q", out.String())
	}
}

func TestExportEmptyHistory(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()

	a, _ := newTestApp(t, fake, filepath.Join(t.TempDir(), "session.json"))
	if err := a.run(context.Background(), []string{"login", testutil.DemoEmail, testutil.DemoPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}

	err := a.run(context.Background(), []string{"export", "transactions", t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "Rien à exporter") {
		t.Fatalf("expected nothing to export, got %v", err)
	}
	if fake.Count("GET", "/wallet/transactions") < 2 {
		t.Fatalf("expected export to refresh before building the file")
	}
}

func TestExportRequiresLogin(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()

	a, _ := newTestApp(t, fake, filepath.Join(t.TempDir(), "session.json"))
	if err := a.run(context.Background(), []string{"export", "topups"}); err == nil {
		t.Fatal("expected an error without a session")
	}
	if len(fake.Requests()) != 0 {
		t.Fatalf("expected no backend calls, got %v", fake.Requests())
	}
}

func TestUnknownCommand(t *testing.T) {
	fake := testutil.NewFakeBackend()
	defer fake.Close()

	a, _ := newTestApp(t, fake, filepath.Join(t.TempDir(), "session.json"))
	if err := a.run(context.Background(), []string{"transfer"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}
