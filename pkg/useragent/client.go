package useragent

import (
	"net/http"
	"runtime"
)

const product = "connect4-client"

// String builds the User-Agent this client sends, e.g.
// "connect4-client/1.2.0 (Linux; amd64)".
func String(version string) string {
	if version == "" {
		version = "dev"
	}
	return product + "/" + version + " (" + osName(runtime.GOOS) + "; " + runtime.GOARCH + ")"
}

// Apply sets the User-Agent on h unless one is already present.
func Apply(h http.Header, version string) http.Header {
	if h == nil {
		h = http.Header{}
	}
	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", String(version))
	}
	return h
}

func osName(goos string) string {
	switch goos {
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "android":
		return "Android"
	case "ios":
		return "iOS"
	}
	return goos
}
