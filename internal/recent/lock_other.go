//go:build !unix && !windows

package recent

import (
	"errors"
	"os"
)

func lockFile(*os.File, bool) error {
	return errors.ErrUnsupported
}

func unlockFile(*os.File) error {
	return nil
}
