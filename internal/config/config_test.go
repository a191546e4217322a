package config

import "testing"

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxLevel != 20 {
		t.Errorf("expected default max level 20, got %d", cfg.MaxLevel)
	}
	if cfg.Dialect != "generic" {
		t.Errorf("expected default dialect 'generic', got %q", cfg.Dialect)
	}
	if cfg.Output != "joinspace-output.csv" {
		t.Errorf("expected default output path, got %q", cfg.Output)
	}
	if cfg.SemicolonSeparated || cfg.StopOnError || cfg.Verbose || cfg.Validate {
		t.Errorf("expected all boolean flags to default false, got %+v", cfg)
	}
}

func TestLoad_MissingExplicitConfigFileIsAnError(t *testing.T) {
	cfg, err := Load("/nonexistent/path/joinspace.yaml")
	if err == nil {
		t.Fatalf("expected an error for an explicitly named, missing config file")
	}
	_ = cfg
}

func TestLoad_EmptyPathUsesDiscoveryWithoutError(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected discovery mode to tolerate a missing config file, got: %v", err)
	}
	if cfg.MaxLevel != 20 {
		t.Errorf("expected default max level when no config file is found, got %d", cfg.MaxLevel)
	}
}
