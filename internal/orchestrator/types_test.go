package orchestrator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOutcomeErr(t *testing.T) {
	if err := Success().Err(); err != nil {
		t.Fatalf("Success().Err() = %v, want nil", err)
	}

	err := Failure("timeout", "dial ws: i/o timeout").Err()
	if err == nil {
		t.Fatal("Failure().Err() = nil, want error")
	}
	if !strings.Contains(err.Error(), "timeout") || !strings.Contains(err.Error(), "i/o timeout") {
		t.Fatalf("error = %q, want code and message", err)
	}

	err = Failure("unauthorized", "").Err()
	if err == nil || err.Error() != "unauthorized" {
		t.Fatalf("error = %v, want bare code", err)
	}

	out := Failuref("bad_port", "port %d rejected", 80)
	if out.Message != "port 80 rejected" {
		t.Fatalf("Message = %q", out.Message)
	}
}

func TestRegistrationParamsRedaction(t *testing.T) {
	params := RegistrationParams{
		WebSocketURL: "wss://orchestrator.example/ws",
		FleetID:      "fleet-abc",
		HostID:       "host-1",
		ProcessID:    "proc-01ABC",
		AuthToken:    "tok-super-secret",
		AccessKey:    "AKIAEXAMPLE",
		SecretKey:    "sk-hidden-value",
		SessionToken: "sess-hidden-value",
		Region:       "eu-west-1",
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().Object("params", params).Msg("registering")

	out := buf.String()
	for _, secret := range []string{"tok-super-secret", "AKIAEXAMPLE", "sk-hidden-value", "sess-hidden-value"} {
		if strings.Contains(out, secret) {
			t.Fatalf("log output leaked secret %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "[redacted]") {
		t.Fatalf("log output missing redaction marker: %s", out)
	}
	if !strings.Contains(out, "fleet-abc") || !strings.Contains(out, "proc-01ABC") {
		t.Fatalf("log output missing non-secret identifiers: %s", out)
	}
}

func TestRegistrationParamsEmptySecretsStayEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().Object("params", RegistrationParams{FleetID: "fleet-abc"}).Msg("registering")

	if strings.Contains(buf.String(), "[redacted]") {
		t.Fatalf("empty secrets should not be marked redacted: %s", buf.String())
	}
}

func TestNewProcessID(t *testing.T) {
	a := NewProcessID()
	b := NewProcessID()
	if !strings.HasPrefix(a, "proc-") {
		t.Fatalf("id = %q, want proc- prefix", a)
	}
	if a == b {
		t.Fatalf("expected unique ids, got %q twice", a)
	}
}
