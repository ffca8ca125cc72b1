package version

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// These are set at build time with -ldflags "-X".
var (
	BuildVersion = "dev"
	BuildRef     = "unknown"
	BuildDate    = "unknown"
)

// String returns a one-line description of the running binary.
func String() string {
	return fmt.Sprintf("%s version %s (ref %s, built %s, %s/%s)",
		filepath.Base(os.Args[0]), BuildVersion, BuildRef, BuildDate, runtime.GOOS, runtime.GOARCH)
}
