package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure lute can operate correctly.

This command checks:
- SQLite version
- Database accessibility and integrity
- Data and artifacts directories are writable
- Which pipeline data files are present
- MIDI directory storage (local or network mount) and free space
- positionstack API key presence

Use this command to troubleshoot issues before running a pipeline step.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Lute Doctor - System Diagnostics ===")
	util.InfoLog("")

	dataDir := GetConfigString("data-dir", ".")
	midiDir := GetConfigString("dir", "midi")

	results := []checkResult{
		checkSQLite(),
		checkDatabase(viper.GetString("db")),
		checkWritableDirectory("Data directory", dataDir),
		checkWritableDirectory("Artifacts directory", GetConfigString("artifacts", "artifacts")),
	}
	results = append(results, checkDataFiles(dataDir)...)
	results = append(results,
		checkMidiDirectory(midiDir),
		checkDiskSpace(midiDir, "MIDI directory"),
		checkAPIKey(viper.GetString("positionstack_key")),
	)

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some critical checks failed. Please resolve errors before running lute.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("All checks passed!")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite answers
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	composers, _ := db.CountComposers()
	cached, _, _ := db.CountGeocodes()

	return checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, %d composers, %d cached towns)",
			dbPath, humanize.Bytes(uint64(info.Size())), composers, cached),
	}
}

// checkWritableDirectory verifies a directory exists (creating it if
// needed) and accepts new files
func checkWritableDirectory(name, path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    name,
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    name,
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    name,
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    name,
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".lute_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    name,
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    name,
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDataFiles reports which pipeline inputs and outputs exist in dataDir.
// A missing file only means the step producing it has not run yet.
func checkDataFiles(dataDir string) []checkResult {
	files := []struct {
		name string
		step string
	}{
		{dataset.ComposersFile, "input of 'lute scrape'"},
		{dataset.LuteFile, "input of 'lute download'"},
		{dataset.ClassicalFile, "written by 'lute scrape'"},
		{dataset.MusicalicsFile, "written by 'lute scrape'"},
		{dataset.MergedFile, "written by 'lute parse'"},
		{dataset.TownsFile, "written by 'lute geocode'"},
	}

	results := make([]checkResult, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dataDir, f.name)
		info, err := os.Stat(path)
		if err != nil {
			results = append(results, checkResult{
				name:    f.name,
				warning: true,
				message: fmt.Sprintf("not found (%s)", f.step),
			})
			continue
		}
		results = append(results, checkResult{
			name:    f.name,
			message: fmt.Sprintf("%s, modified %s", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime())),
		})
	}
	return results
}

// checkMidiDirectory reports the download tuning chosen for the MIDI directory
func checkMidiDirectory(path string) checkResult {
	tuning := util.TuneForDir(path, nil, util.GetConcurrency())
	return checkResult{
		name:    "MIDI directory",
		message: fmt.Sprintf("%s (%s)", path, tuning),
	}
}

// checkAPIKey verifies a positionstack key is configured
func checkAPIKey(key string) checkResult {
	if key == "" {
		return checkResult{
			name:    "positionstack key",
			warning: true,
			message: "not set (required for 'lute geocode'; use --key or LUTE_POSITIONSTACK_KEY)",
		}
	}
	return checkResult{
		name:    "positionstack key",
		message: fmt.Sprintf("set (%d characters)", len(key)),
	}
}

// checkDiskSpace verifies available disk space for the directory or its
// closest existing parent
func checkDiskSpace(path string, label string) checkResult {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	// MIDI files are small; warn only when the disk is nearly full
	warning := false
	warningMsg := ""
	if availBytes < 100*humanize.MByte {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 95 {
		warning = true
		warningMsg = " (>95% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", humanize.Bytes(availBytes), warningMsg),
	}
}
