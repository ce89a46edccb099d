package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"too-short-secret-value":                   true,
		"clinic-billing-signing-key-change-me-now": true,
		"petcare-dev-secret-please-rotate-000000":  true,
		"Zq8v1Lw0rM3nC7tY5pK2sH9dF4gJ6bX0aE1uR8":   false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("secret %q weak want %v got %v", secret, want, got)
		}
	}
	if err := checkJWTSecret("short", true); err == nil {
		t.Fatalf("release mode should reject weak secret")
	}
	if err := checkJWTSecret("short", false); err != nil {
		t.Fatalf("debug mode should only warn: %v", err)
	}
}
