package buildtime

import (
	"fmt"
	"os"

	"github.com/sjc5/inkwell/internal/common"
)

// Clean removes the output directory. A missing directory is not an error.
func Clean(config *common.Config) error {
	if err := os.RemoveAll(config.GetDistDir()); err != nil {
		return fmt.Errorf("error removing dist directory: %v", err)
	}
	return nil
}

func MakeRequisiteDirs(config *common.Config) error {
	for _, path := range []string{config.GetDistCSSDir(), config.GetDistImagesDir()} {
		if err := os.MkdirAll(path, 0755); err != nil {
			config.Logger.Errorf("error making %s: %v", path, err)
			return err
		}
	}
	return nil
}
