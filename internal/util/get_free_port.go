package util

import (
	"fmt"
	"net"
)

const maxOffset = 100

// GetFreePort returns defaultPort if it can be bound, otherwise the nearest
// free port above it, falling back to a kernel-assigned port.
func GetFreePort(defaultPort int) (int, error) {
	if err := checkPortAvailability(defaultPort); err == nil {
		return defaultPort, nil
	}

	for offset := 1; offset <= maxOffset; offset++ {
		port := defaultPort + offset
		if port > 65535 {
			break
		}
		if err := checkPortAvailability(port); err == nil {
			return port, nil
		}
	}

	return getRandomFreePort()
}

func checkPortAvailability(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return l.Close()
}

func getRandomFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("error getting random free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
