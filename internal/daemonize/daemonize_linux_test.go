//go:build linux

package daemonize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDaemonizeIsNoopWhenAlreadyDaemonized(t *testing.T) {
	t.Setenv(reexecEnv, "1")

	exitParent, err := Daemonize()
	assert.NoError(t, err)
	assert.False(t, exitParent)
}
