package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(EnvWorkerID, "fridge-worker-7")
	if got := GetID(); got != "fridge-worker-7" {
		t.Fatalf("expected env worker id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(EnvWorkerID, "")
	if got := GetID(); got == "" {
		t.Fatal("expected non-empty fallback id")
	}
}
