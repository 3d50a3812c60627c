package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetEnv() {
	os.Unsetenv(modeKey)
	os.Unsetenv(devServerPortKey)
}

func TestGetIsProduction(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     bool
	}{
		{"DevMode", devModeVal, false},
		{"ProdMode", prodModeVal, true},
		{"EmptyMode", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnv()
			defer resetEnv()
			if tt.envValue != "" {
				os.Setenv(modeKey, tt.envValue)
			}
			assert.Equal(t, tt.want, InkwellEnv.GetIsProduction())
		})
	}
}

func TestSetMode(t *testing.T) {
	resetEnv()
	defer resetEnv()

	InkwellEnv.SetMode(true)
	assert.True(t, InkwellEnv.GetIsProduction())
	assert.Equal(t, prodModeVal, os.Getenv(modeKey))

	InkwellEnv.SetMode(false)
	assert.False(t, InkwellEnv.GetIsProduction())
	assert.Equal(t, devModeVal, os.Getenv(modeKey))
}

func TestDevServerPort(t *testing.T) {
	resetEnv()
	defer resetEnv()

	assert.Equal(t, 0, InkwellEnv.GetDevServerPort())
	InkwellEnv.SetDevServerPort(3001)
	assert.Equal(t, 3001, InkwellEnv.GetDevServerPort())
}
