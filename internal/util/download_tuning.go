package util

import (
	"fmt"
)

// DownloadTuning holds the worker and buffer settings used for writing
// downloaded files into a directory
type DownloadTuning struct {
	Concurrency int
	BufferSize  int
	NetworkMode bool
	Detected    *NetworkInfo
}

const (
	localBufferSize   = 32 * 1024
	networkBufferSize = 256 * 1024
	networkMaxWorkers = 4
)

// TuneForDir detects whether dir sits on network storage and adjusts the
// download settings. A non-nil networkMode overrides detection.
// The directory does not need to exist yet; its closest existing parent is checked instead.
func TuneForDir(dir string, networkMode *bool, baseConcurrency int) *DownloadTuning {
	cfg := &DownloadTuning{
		Concurrency: baseConcurrency,
		BufferSize:  localBufferSize,
	}

	if networkMode != nil {
		cfg.NetworkMode = *networkMode
		if cfg.NetworkMode {
			applyNetworkSettings(cfg)
			InfoLog("Network mode: explicitly enabled via config/flag")
		}
		return cfg
	}

	info, err := DetectNetworkFilesystem(existingParent(dir))
	if err != nil {
		WarnLog("Failed to detect filesystem for %s: %v", dir, err)
		return cfg
	}
	if !info.IsNetwork {
		DebugLog("Local filesystem detected for %s", dir)
		return cfg
	}

	cfg.NetworkMode = true
	cfg.Detected = info
	applyNetworkSettings(cfg)

	InfoLog("Network filesystem detected: %s is on %s (%s)", dir, info.Protocol, info.MountPath)
	InfoLog("  Concurrency: %d → %d workers", baseConcurrency, cfg.Concurrency)
	InfoLog("  Buffer size: %dKB", cfg.BufferSize/1024)
	InfoLog("TIP: Use --network-mode=false to disable auto-tuning")
	return cfg
}

// applyNetworkSettings fewer workers, larger writes
func applyNetworkSettings(cfg *DownloadTuning) {
	if cfg.Concurrency > networkMaxWorkers || cfg.Concurrency <= 0 {
		cfg.Concurrency = networkMaxWorkers
	}
	cfg.BufferSize = networkBufferSize
}

// String describes the tuning for doctor output
func (cfg *DownloadTuning) String() string {
	if !cfg.NetworkMode {
		return fmt.Sprintf("local filesystem, %d workers", cfg.Concurrency)
	}

	protocol := "unknown"
	if cfg.Detected != nil {
		protocol = cfg.Detected.Protocol
	}
	return fmt.Sprintf("network filesystem (%s), %d workers, %dKB buffer",
		protocol, cfg.Concurrency, cfg.BufferSize/1024)
}
