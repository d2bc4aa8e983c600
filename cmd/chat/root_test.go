package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandArgs(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"listen bad port", []string{"listen", "http"}, `invalid port "http"`},
		{"listen port out of range", []string{"listen", "70000"}, `invalid port "70000"`},
		{"listen too many args", []string{"listen", "1", "2"}, "accepts at most 1 arg"},
		{"connect missing port", []string{"connect", "localhost"}, "accepts 2 arg"},
		{"connect bad port", []string{"connect", "localhost", "x"}, `invalid port "x"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cfgPath := filepath.Join(t.TempDir(), "roomchat.yaml")
			cmd.SetArgs(append(tc.args, "--config", cfgPath, "--log-level", "error"))

			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadAppliesLogLevelFlag(t *testing.T) {
	opts := &rootOptions{configPath: filepath.Join(t.TempDir(), "roomchat.yaml"), logLevel: "debug"}
	cfg, err := opts.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want flag value", cfg.LogLevel)
	}

	opts.logLevel = ""
	cfg, err = opts.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want file default", cfg.LogLevel)
	}
}
