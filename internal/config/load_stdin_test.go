package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStdinUse(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  []string
	}{
		{
			name: "no stdin sources",
			settings: map[string]any{
				"upstream.subscription_key_file": "/tmp/key",
				"audit.dsn_file":                 "/tmp/dsn",
				"server.admin.auth_token_file":   "/tmp/admin-token",
			},
		},
		{
			name: "one stdin source over http",
			settings: map[string]any{
				"upstream.subscription_key_file": "@-",
				"audit.dsn_file":                 "/tmp/dsn",
			},
		},
		{
			name: "multiple stdin sources",
			settings: map[string]any{
				"upstream.subscription_key_file": "@-",
				"audit.dsn_file":                 " @- ",
				"server.admin.auth_token_file":   "@-",
			},
			wantErr: []string{"upstream.subscription_key_file", "audit.dsn_file", "server.admin.auth_token_file"},
		},
		{
			name: "stdin source with stdio transport",
			settings: map[string]any{
				"server.transport":               "stdio",
				"upstream.subscription_key_file": "@-",
			},
			wantErr: []string{"upstream.subscription_key_file", "stdio transport"},
		},
		{
			name: "prompt with stdio transport",
			settings: map[string]any{
				"server.transport":                "STDIO",
				"upstream.subscription_key_prompt": true,
			},
			wantErr: []string{"upstream.subscription_key_prompt"},
		},
		{
			name: "prompt skipped when key is inline",
			settings: map[string]any{
				"server.transport":                "stdio",
				"upstream.subscription_key":        "k",
				"upstream.subscription_key_prompt": true,
			},
		},
		{
			name: "files with stdio transport",
			settings: map[string]any{
				"server.transport":               "stdio",
				"upstream.subscription_key_file": "/run/secrets/key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.settings {
				v.Set(k, val)
			}
			err := validateStdinUse(v)
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
