package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("stream:\n  api_secret: cli-secret\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "42"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		_ = tokenCmd.Flags().Set("user", "")
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (any, error) {
		return []byte("cli-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token %q: %v", out.String(), err)
	}
	if claims["user_id"] != "42" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestTokenCommandRequiresUser(t *testing.T) {
	_ = tokenCmd.Flags().Set("user", "")
	rootCmd.SetArgs([]string{"token"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected error without --user")
	}
}
