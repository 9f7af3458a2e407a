package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"test", Testing},
		{"TESTING", Testing},
		{"dev", Development},
		{" development ", Development},
		{"local", Development},
		{"prod", Production},
		{"production", Production},
		{"staging", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvironment(tt.in))
		})
	}
}

func TestEnvironmentStrict(t *testing.T) {
	assert.False(t, Testing.Strict())
	assert.False(t, Development.Strict())
	assert.True(t, Production.Strict())
	assert.True(t, Unknown.Strict())
}

func TestDetectUsesAppEnv(t *testing.T) {
	Env = map[string]string{"APP_ENV": "dev"}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, Development, Detect())
	assert.True(t, IsDev())
}

func TestGetBool(t *testing.T) {
	Env = map[string]string{"FLAG_ON": "yes", "FLAG_OFF": "nope"}
	t.Cleanup(func() { Env = nil })

	assert.True(t, GetBool("FLAG_ON", false))
	assert.False(t, GetBool("FLAG_OFF", true))
	assert.True(t, GetBool("FLAG_MISSING", true))
}
