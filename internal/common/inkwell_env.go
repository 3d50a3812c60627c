package common

import (
	"fmt"
	"os"
	"strconv"
)

var InkwellEnv = inkwellEnvType{}

const (
	modeKey          = "INKWELL_ENV_MODE"
	devModeVal       = "development"
	prodModeVal      = "production"
	devServerPortKey = "INKWELL_ENV_DEV_SERVER_PORT"
)

type inkwellEnvType struct{}

func (k inkwellEnvType) GetIsProduction() bool {
	return os.Getenv(modeKey) == prodModeVal
}

func (k inkwellEnvType) SetMode(production bool) {
	if production {
		os.Setenv(modeKey, prodModeVal)
		return
	}
	os.Setenv(modeKey, devModeVal)
}

func (k inkwellEnvType) GetDevServerPort() int {
	port, err := strconv.Atoi(os.Getenv(devServerPortKey))
	if err != nil {
		return 0
	}
	return port
}

func (k inkwellEnvType) SetDevServerPort(port int) {
	os.Setenv(devServerPortKey, fmt.Sprintf("%d", port))
}
