package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{}.WithDefaults()

	tests := []struct {
		name    string
		config  func() Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  func() Config { c := valid; c.Backend = ""; return c },
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  func() Config { c := valid; c.Backend = "postgres"; return c },
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "negative save delay returns ErrSaveDelayInvalid",
			config:  func() Config { c := valid; c.SaveDelay = -time.Second; return c },
			wantErr: ErrSaveDelayInvalid,
		},
		{
			name:    "zero cache TTL returns ErrCacheTTLInvalid",
			config:  func() Config { c := valid; c.CacheTTL = 0; return c },
			wantErr: ErrCacheTTLInvalid,
		},
		{
			name: "rule without expression returns ErrRuleInvalid",
			config: func() Config {
				c := valid
				c.Rules = []Rule{{ID: "r1"}}
				return c
			},
			wantErr: ErrRuleInvalid,
		},
		{
			name:    "valid sqlite config",
			config:  func() Config { c := valid; c.Backend = BackendSQLite; c.DataDir = "/tmp/data"; return c },
			wantErr: nil,
		},
		{
			name:    "defaults are valid",
			config:  func() Config { return valid },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config().Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.Backend != BackendJSON {
		t.Fatalf("expected backend %q, got %q", BackendJSON, c.Backend)
	}
	if c.SaveDelay != 2*time.Second {
		t.Fatalf("expected save delay 2s, got %v", c.SaveDelay)
	}
	if c.CacheTTL != 60*time.Second {
		t.Fatalf("expected cache TTL 60s, got %v", c.CacheTTL)
	}

	custom := Config{Backend: BackendSQLite, SaveDelay: time.Second}.WithDefaults()
	if custom.Backend != BackendSQLite || custom.SaveDelay != time.Second {
		t.Fatalf("explicit values were overwritten: %+v", custom)
	}
}
