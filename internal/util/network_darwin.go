//go:build darwin

package util

import (
	"strings"
	"syscall"
)

var darwinNetworkTypes = []string{"nfs", "smbfs", "afpfs", "cifs", "webdav", "osxfuse"}

// detectPlatformNetwork reads the filesystem type name reported by statfs
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	fsType := strings.ToLower(cString(stat.Fstypename[:]))
	for _, netType := range darwinNetworkTypes {
		if strings.Contains(fsType, netType) {
			info.IsNetwork = true
			info.Protocol = fsType
			info.MountPath = cString(stat.Mntonname[:])
			break
		}
	}
	return info, nil
}

// cString converts a NUL-terminated int8 array
func cString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
