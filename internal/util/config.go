package util

import (
	"runtime"

	"github.com/spf13/viper"
)

// DefaultConcurrency mirrors the usual thread pool sizing: min(32, NumCPU+4)
func DefaultConcurrency() int {
	n := runtime.NumCPU() + 4
	if n > 32 {
		n = 32
	}
	return n
}

// GetConcurrency returns the configured worker count, falling back to DefaultConcurrency
func GetConcurrency() int {
	if n := viper.GetInt("concurrency"); n > 0 {
		return n
	}
	return DefaultConcurrency()
}
