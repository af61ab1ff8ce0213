package tracing

import (
	"context"
	"testing"
)

func TestDisabledProvider(t *testing.T) {
	provider, err := NewTracingProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider.IsEnabled() {
		t.Error("provider should report disabled")
	}
	if provider.GetTracer("test") == nil {
		t.Error("disabled provider should still hand out no-op tracers")
	}

	ctx := context.Background()
	if err := provider.Start(ctx); err != nil {
		t.Errorf("Start failed: %v", err)
	}
	if err := provider.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestEnabledRequiresEndpoint(t *testing.T) {
	if _, err := NewTracingProvider(Config{Enabled: true}); err == nil {
		t.Error("expected error when enabled without endpoint")
	}
}

func TestTLSConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "TLS with insecure skip verify",
			cfg: Config{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				TLSInsecure: true,
			},
			expectError: false,
		},
		{
			name: "TLS with missing CA certificate",
			cfg: Config{
				Enabled:   true,
				Endpoint:  "localhost:4317",
				TLSCAPath: "/path/to/missing/ca.crt",
			},
			expectError: true,
		},
		{
			name: "No TLS (insecure connection)",
			cfg: Config{
				Enabled:  true,
				Endpoint: "localhost:4317",
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewTracingProvider(tt.cfg)
			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if provider != nil && provider.enabled != tt.cfg.Enabled {
				t.Errorf("Provider enabled=%v, want %v", provider.enabled, tt.cfg.Enabled)
			}
		})
	}
}
