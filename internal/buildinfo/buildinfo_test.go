package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     *Context
		version string
		date    string
	}{
		{"nil context", nil, UnknownValue, UnknownValue},
		{"empty fields", NewContext("", ""), UnknownValue, UnknownValue},
		{"set", NewContext("1.2.0", "2026-10-01"), "1.2.0", "2026-10-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.date, tt.ctx.GetBuildDate())
		})
	}
}

func TestContextRelease(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ssvep-go@1.2.0", NewContext("1.2.0", "").Release())
	assert.Equal(t, "ssvep-go@unknown", (*Context)(nil).Release())
	assert.Equal(t, "1.2.0 (built unknown)", NewContext("1.2.0", "").String())
}
