package client

import (
	"testing"

	"github.com/maikeriva/asyncrtos-websocket-client/api"
)

func validConfig() Config {
	return Config{
		Host:    "example.invalid",
		OnData:  func([]byte) {},
		OnEvent: func(api.Event) {},
	}
}

func TestResolveRejectsMissingRequiredFields(t *testing.T) {
	if _, err := resolve(Config{}); err == nil {
		t.Fatal("expected an error for a Config with no Host/OnData/OnEvent")
	}
	cfg := validConfig()
	cfg.OnData = nil
	if _, err := resolve(cfg); err == nil {
		t.Fatal("expected an error for a Config missing OnData")
	}
}

func TestResolveDefaultsUnsetBudgets(t *testing.T) {
	out, err := resolve(validConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.ConnectionAttempts == nil || *out.ConnectionAttempts != defaultConnectionBudget {
		t.Fatalf("ConnectionAttempts = %v, want %d", out.ConnectionAttempts, defaultConnectionBudget)
	}
	if out.ReconnectionAttempts == nil || *out.ReconnectionAttempts != defaultReconnectionBudget {
		t.Fatalf("ReconnectionAttempts = %v, want %d", out.ReconnectionAttempts, defaultReconnectionBudget)
	}
}

func TestResolvePreservesExplicitZeroBudgets(t *testing.T) {
	cfg := validConfig()
	cfg.ConnectionAttempts = Budget(0)
	cfg.ReconnectionAttempts = Budget(0)

	out, err := resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.ConnectionAttempts == nil || *out.ConnectionAttempts != 0 {
		t.Fatalf("ConnectionAttempts = %v, want an explicit 0", out.ConnectionAttempts)
	}
	if out.ReconnectionAttempts == nil || *out.ReconnectionAttempts != 0 {
		t.Fatalf("ReconnectionAttempts = %v, want an explicit 0", out.ReconnectionAttempts)
	}
}

func TestResolveDefaultsPortOnly(t *testing.T) {
	out, err := resolve(validConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Port != defaultPort {
		t.Fatalf("Port = %d, want %d", out.Port, defaultPort)
	}
}
