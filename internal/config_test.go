package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Report.WarningLimit != 10 || cfg.Report.InfoLimit != 5 {
		t.Errorf("report limits = %+v, want 10/5", cfg.Report)
	}
}

func TestDocsConfig_RootRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Docs.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty docs root should fail validation")
	}
}

func TestDocsConfig_EmptyExtension(t *testing.T) {
	cfg := DocsConfig{Root: "./docs", Extensions: []string{".md", ""}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty extension should fail validation")
	}
}

func TestReportConfig_NegativeLimit(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Report.InfoLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative info limit should fail validation")
	}
}

func TestReportConfig_ZeroAllowed(t *testing.T) {
	cfg := ReportConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero limits should pass: %v", err)
	}
}
