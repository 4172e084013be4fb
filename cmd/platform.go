package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// errUnsupportedPlatform is returned on hosts the tool refuses to run on.
var errUnsupportedPlatform = errors.New("windows is not supported; run the tool on linux")

// hostOS is overridden in tests.
var hostOS = runtime.GOOS

// checkPlatform rejects windows and warns on anything other than linux.
func checkPlatform(goos string, logger *slog.Logger) error {
	switch goos {
	case "linux":
		return nil
	case "windows":
		return errUnsupportedPlatform
	default:
		logger.Warn(fmt.Sprintf("%s is not tested, results may vary", goos))
		return nil
	}
}
