//go:build linux

package util

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

// Kernel VFS magic numbers of network filesystems
var linuxNetworkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0x517b:     "smb",
	0x01021994: "smbfs",
	0x564c:     "ncp",
	0xfe534d42: "smb2",
}

var linuxNetworkTypes = []string{"nfs", "cifs", "smb", "ncpfs", "fuse.sshfs", "fuse.rclone"}

// detectPlatformNetwork checks the statfs magic, then /proc/mounts for the mount point
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	if proto, ok := linuxNetworkMagic[uint32(stat.Type)]; ok {
		info.IsNetwork = true
		info.Protocol = proto
	}

	mounts, err := parseProcMounts()
	if err != nil {
		return info, nil
	}

	best := ""
	for mountPoint, fsType := range mounts {
		if !strings.HasPrefix(path, mountPoint) || len(mountPoint) <= len(best) {
			continue
		}
		best = mountPoint

		fsType = strings.ToLower(fsType)
		for _, netType := range linuxNetworkTypes {
			if strings.Contains(fsType, netType) {
				info.IsNetwork = true
				info.Protocol = fsType
				info.MountPath = mountPoint
				break
			}
		}
	}

	return info, nil
}

// parseProcMounts maps mount points to filesystem types
func parseProcMounts() (map[string]string, error) {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mounts := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}
	return mounts, scanner.Err()
}
