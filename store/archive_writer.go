package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// ArchiveWriter streams tick rows for one or more games into a single parquet
// file in outDir/tmp and moves it into outDir on Finalize.
type ArchiveWriter struct {
	outDir  string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[TickRow]

	games int
	rows  int
}

func NewArchiveWriter(outDir string) (*ArchiveWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("arena_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[TickRow](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", archiveSchema)

	return &ArchiveWriter{
		outDir:  absOut,
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (a *ArchiveWriter) OutPath() string { return a.outPath }
func (a *ArchiveWriter) Rows() int       { return a.rows }
func (a *ArchiveWriter) Games() int      { return a.games }

func (a *ArchiveWriter) Write(rows ...TickRow) error {
	if a.writer == nil {
		return fmt.Errorf("archive writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := a.writer.Write(rows); err != nil {
		return fmt.Errorf("write ticks: %w", err)
	}
	a.rows += len(rows)
	return nil
}

// EndGame counts a finished game toward Games.
func (a *ArchiveWriter) EndGame() { a.games++ }

// Finalize closes the file and moves it out of tmp/. With no rows written the
// temp file is removed and the returned path is empty.
func (a *ArchiveWriter) Finalize() (string, error) {
	if a.writer == nil && a.file == nil {
		return "", nil
	}

	var closeErr, fileErr error
	if a.writer != nil {
		closeErr = a.writer.Close()
		a.writer = nil
	}
	if a.file != nil {
		_ = a.file.Sync()
		fileErr = a.file.Close()
		a.file = nil
	}
	if closeErr != nil {
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}

	if a.rows == 0 {
		_ = os.Remove(a.tmpPath)
		return "", nil
	}
	if err := os.Rename(a.tmpPath, a.outPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return a.outPath, nil
}
