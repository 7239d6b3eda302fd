package midi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/afero"
)

// ErrNoURL is returned for rows whose Midi cell is empty
var ErrNoURL = errors.New("row has no midi url")

// partialSuffix marks a file that is still being downloaded
const partialSuffix = ".part"

// Downloader fetches MIDI files and writes them as <index>.mid
type Downloader struct {
	fs           afero.Fs
	client       *http.Client
	dir          string
	pool         *Pool
	skipExisting bool
	bufferSize   int
	retryConfig  *util.RetryConfig
	store        *store.Store
	logger       *report.EventLogger
}

// Config holds downloader configuration
type Config struct {
	Fs           afero.Fs     // nil = OS filesystem
	Client       *http.Client // nil = util.NewHTTPClient default
	Dir          string
	Concurrency  int // 0 = util.DefaultConcurrency
	SkipExisting bool
	BufferSize   int               // copy buffer (0 = 32KB)
	RetryConfig  *util.RetryConfig // nil = util.DefaultRetryConfig
	Store        *store.Store      // optional download ledger
	Logger       *report.EventLogger
}

// New creates a new Downloader
func New(cfg *Config) *Downloader {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Client == nil {
		cfg.Client = util.NewHTTPClient(0)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 32 * 1024
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.DefaultRetryConfig()
	}

	return &Downloader{
		fs:           cfg.Fs,
		client:       cfg.Client,
		dir:          cfg.Dir,
		pool:         NewPool(cfg.Concurrency),
		skipExisting: cfg.SkipExisting,
		bufferSize:   cfg.BufferSize,
		retryConfig:  cfg.RetryConfig,
		store:        cfg.Store,
		logger:       cfg.Logger,
	}
}

// Outcome is what happened to one row
type Outcome struct {
	Row     dataset.LuteRow
	Path    string
	Bytes   int64
	Skipped bool
	Err     error
}

// Result summarises a download batch
type Result struct {
	Processed    int
	Succeeded    int
	Skipped      int
	Failed       int
	BytesWritten int64
	Outcomes     []Outcome
}

// Download fetches every row. Failures are logged and recorded in the
// result; they never stop the batch. Completion order is unspecified.
func (d *Downloader) Download(ctx context.Context, rows []dataset.LuteRow) (*Result, error) {
	if len(rows) == 0 {
		util.InfoLog("No MIDI files to download")
		return &Result{}, nil
	}

	total := len(rows)
	util.InfoLog("Downloading %d MIDI files to %s with %d workers", total, d.dir, d.pool.Limit())

	outcomes := make([]Outcome, total)

	var processed atomic.Int64
	var bytesWritten atomic.Int64

	bar := util.NewProgressBar(total, "Downloading", "files")

	// Without a bar, report progress periodically
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()
	if bar == nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-progressCtx.Done():
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						util.InfoLog("Downloading: %d/%d (%.1f%%), %s written",
							p, total, float64(p)/float64(total)*100, humanize.Bytes(uint64(bytesWritten.Load())))
					}
				}
			}
		}()
	}

	errs := d.pool.Run(ctx, total, func(ctx context.Context, i int) error {
		defer func() {
			processed.Add(1)
			util.Tick(bar)
		}()

		out := d.downloadRow(ctx, rows[i])
		outcomes[i] = out
		bytesWritten.Add(out.Bytes)
		return out.Err
	})

	cancelProgress()
	util.FinishBar(bar)

	result := &Result{Outcomes: outcomes}
	for i, err := range errs {
		result.Processed++
		switch {
		case err != nil:
			result.Failed++
			if outcomes[i].Err == nil {
				outcomes[i] = Outcome{Row: rows[i], Err: err}
			}
		case outcomes[i].Skipped:
			result.Skipped++
		default:
			result.Succeeded++
			result.BytesWritten += outcomes[i].Bytes
		}
	}

	util.SuccessLog("Download complete: %d processed, %d succeeded, %d skipped, %d failed, %s written",
		result.Processed, result.Succeeded, result.Skipped, result.Failed, humanize.Bytes(uint64(result.BytesWritten)))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// downloadRow fetches one row and records the outcome in the ledger
func (d *Downloader) downloadRow(ctx context.Context, row dataset.LuteRow) Outcome {
	path := FilePath(d.dir, row.Index)
	out := Outcome{Row: row, Path: path}

	if d.skipExisting {
		if info, err := d.fs.Stat(path); err == nil && info.Size() > 0 {
			util.DebugLog("Skipping row %d: %s exists", row.Index, path)
			out.Skipped = true
			return out
		}
	}

	start := time.Now()
	n, err := util.RetryWithBackoff(ctx, d.retryConfig, func() (int64, error) {
		return d.fetch(ctx, row.URL, path)
	}, fmt.Sprintf("download row %d", row.Index))
	out.Bytes = n
	out.Err = err

	if err != nil {
		util.ErrorLog("Error downloading %s: %v", row.URL, err)
		out.Bytes = 0
	} else {
		util.DebugLog("Downloaded row %d (%s) to %s", row.Index, humanize.Bytes(uint64(n)), path)
	}

	d.logger.LogDownload(row.Index, row.URL, path, out.Bytes, time.Since(start), err)
	d.recordLedger(out)
	return out
}

func (d *Downloader) recordLedger(out Outcome) {
	if d.store == nil || errors.Is(out.Err, context.Canceled) {
		return
	}

	entry := &store.Download{
		RowIndex:     out.Row.Index,
		Composer:     out.Row.Composer,
		URL:          out.Row.URL,
		Path:         out.Path,
		BytesWritten: out.Bytes,
		CompletedAt:  time.Now(),
	}
	if out.Err != nil {
		entry.Path = ""
		entry.Error = out.Err.Error()
	}
	if err := d.store.RecordDownload(entry); err != nil {
		util.WarnLog("Failed to record download of row %d: %v", out.Row.Index, err)
	}
}

// fetch GETs url and streams the body to a temporary file next to path,
// renaming it into place once complete. A failed transfer removes the
// temporary file and leaves any previous file at path untouched.
func (d *Downloader) fetch(ctx context.Context, url, path string) (int64, error) {
	if url == "" {
		return 0, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", util.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := util.CheckStatus(resp); err != nil {
		return 0, err
	}

	if err := d.fs.MkdirAll(d.dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + partialSuffix
	f, err := d.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, err := copyWithContext(ctx, f, resp.Body, d.bufferSize)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = d.fs.Rename(tmp, path)
	}
	if err != nil {
		_ = d.fs.Remove(tmp)
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return n, nil
}

// copyWithContext copies data with context cancellation support
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader, bufferSize int) (int64, error) {
	buf := make([]byte, bufferSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if ew == nil {
					ew = fmt.Errorf("invalid write result")
				}
			}
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er != io.EOF {
				return written, er
			}
			break
		}
	}
	return written, nil
}
