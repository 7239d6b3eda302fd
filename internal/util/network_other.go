//go:build !linux && !darwin

package util

import "syscall"

// detectPlatformNetwork assumes local storage on other platforms
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	return &NetworkInfo{}, nil
}
