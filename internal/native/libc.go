package native

import (
	"runtime"
)

// LibC is the platform's C library, as dlopen expects it.
func LibC() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "linux":
		return "libc.so.6"
	default:
		return ""
	}
}
