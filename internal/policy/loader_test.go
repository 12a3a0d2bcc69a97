package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `policy_id: aegis-actions
policy_version: "1"
defaults:
  risk: low
rules:
  - id: zoning-needs-approval
    match:
      action_type: modify_housing_zoning
    effect:
      risk: high
      reason: zoning changes are irreversible
`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Policy.PolicyID != "aegis-actions" || len(loaded.Policy.Rules) != 1 {
		t.Fatalf("unexpected policy: %+v", loaded.Policy)
	}
	if !strings.HasPrefix(loaded.Hash, "sha256:") {
		t.Fatalf("hash: %s", loaded.Hash)
	}
	if len(loaded.Bytes) == 0 {
		t.Fatalf("raw bytes missing")
	}
}

func TestLoadRejectsUnknownRisk(t *testing.T) {
	path := writePolicy(t, `policy_id: p
rules:
  - id: r1
    effect:
      risk: extreme
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadRejectsRuleWithoutID(t *testing.T) {
	path := writePolicy(t, `policy_id: p
rules:
  - match:
      domain: transit
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
