package useragent

import (
	"net/http"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	ua := String("1.2.0")
	assert.True(t, strings.HasPrefix(ua, "connect4-client/1.2.0 ("))
	assert.Contains(t, ua, runtime.GOARCH)

	assert.True(t, strings.HasPrefix(String(""), "connect4-client/dev "))
}

func TestApply(t *testing.T) {
	h := Apply(nil, "1.0.0")
	assert.Equal(t, String("1.0.0"), h.Get("User-Agent"))

	custom := http.Header{}
	custom.Set("User-Agent", "mine")
	assert.Equal(t, "mine", Apply(custom, "1.0.0").Get("User-Agent"))
}

func TestOSName(t *testing.T) {
	assert.Equal(t, "macOS", osName("darwin"))
	assert.Equal(t, "plan9", osName("plan9"))
}
