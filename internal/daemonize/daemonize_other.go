//go:build !linux

package daemonize

import "errors"

// Daemonize is unsupported outside Linux; callers should require
// --foreground on other platforms.
func Daemonize() (exitParent bool, err error) {
	return false, errors.New("daemonize: unsupported on this platform, use --foreground")
}
