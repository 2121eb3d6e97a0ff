package cmd

import "testing"

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_example")
	token, err := tokenFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "ghp_example" {
		t.Errorf("token = %s, want ghp_example", token)
	}
}

func TestTokenFromEnvMissing(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := tokenFromEnv(); err == nil {
		t.Fatal("expected error when GITHUB_TOKEN is unset")
	}
}
