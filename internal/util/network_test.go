package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectNetworkFilesystem_TempDir(t *testing.T) {
	info, err := DetectNetworkFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("DetectNetworkFilesystem failed for temp dir: %v", err)
	}

	// Can't assert locality: tests might run on network storage
	if info.IsNetwork {
		t.Logf("Temp directory is on network storage (%s)", info.Protocol)
	}
}

func TestDetectNetworkFilesystem_NonExistent(t *testing.T) {
	if _, err := DetectNetworkFilesystem("/this/path/does/not/exist/hopefully"); err == nil {
		t.Error("Expected error for non-existent path")
	}
}

func TestExistingParent(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "midi", "deeper")

	if got := existingParent(missing); got != dir {
		t.Errorf("existingParent(%q) = %q, want %q", missing, got, dir)
	}
	if got := existingParent(dir); got != dir {
		t.Errorf("existingParent(%q) = %q, want itself", dir, got)
	}
}

func TestTuneForDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "midi")
	on, off := true, false

	tests := []struct {
		name        string
		mode        *bool
		base        int
		wantWorkers int
		wantBuffer  int
		wantNetwork bool
	}{
		{name: "forced network caps workers", mode: &on, base: 16, wantWorkers: 4, wantBuffer: networkBufferSize, wantNetwork: true},
		{name: "forced network keeps a small pool", mode: &on, base: 2, wantWorkers: 2, wantBuffer: networkBufferSize, wantNetwork: true},
		{name: "forced network with unset pool", mode: &on, base: 0, wantWorkers: 4, wantBuffer: networkBufferSize, wantNetwork: true},
		{name: "forced local", mode: &off, base: 16, wantWorkers: 16, wantBuffer: localBufferSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := TuneForDir(dir, tt.mode, tt.base)
			if cfg.Concurrency != tt.wantWorkers {
				t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, tt.wantWorkers)
			}
			if cfg.BufferSize != tt.wantBuffer {
				t.Errorf("BufferSize = %d, want %d", cfg.BufferSize, tt.wantBuffer)
			}
			if cfg.NetworkMode != tt.wantNetwork {
				t.Errorf("NetworkMode = %v, want %v", cfg.NetworkMode, tt.wantNetwork)
			}
			if cfg.String() == "" {
				t.Error("String() should describe the tuning")
			}
		})
	}
}

func TestTuneForDir_Detect(t *testing.T) {
	if IsNetworkPath(os.TempDir()) {
		t.Skip("temp dir is on network storage")
	}

	cfg := TuneForDir(filepath.Join(t.TempDir(), "not-yet"), nil, 8)
	if cfg.NetworkMode || cfg.Concurrency != 8 {
		t.Errorf("local dir tuned as %+v", cfg)
	}
}
