// Package importer loads patent documents from local JSONL and Parquet files.
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// maxLineBytes bounds one JSONL row; abstracts are capped well below it.
const maxLineBytes = 4 << 20

// Store inserts documents. Inserting an existing ID returns domain.ErrAlreadyExists.
type Store interface {
	InsertDocument(ctx context.Context, doc patent.Document) error
}

// Report totals one import.
type Report struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
	Invalid  int `json:"invalid"`
}

// Importer writes rows into the document store, skipping IDs already present.
type Importer struct {
	store  Store
	logger *zap.Logger
}

// New creates an importer.
func New(store Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// ImportFile picks the reader from the file extension: .parquet or .jsonl/.ndjson.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return im.ImportParquet(ctx, path)
	case ".jsonl", ".ndjson":
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return Report{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return im.ImportJSONL(ctx, f)
	default:
		return Report{}, fmt.Errorf("unsupported file type %q: %w", filepath.Ext(path), domain.ErrInvalidArgument)
	}
}

// ImportJSONL reads one Record per line. Blank lines are ignored; malformed or invalid
// rows are counted and logged, not fatal.
func (im *Importer) ImportJSONL(ctx context.Context, r io.Reader) (Report, error) {
	var rep Report
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			rep.Read++
			rep.Invalid++
			im.logger.Warn("Skipping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}
		if err := im.insert(ctx, &rec, &rep); err != nil {
			return rep, err
		}
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("read line %d: %w", line+1, err)
	}
	im.logFinished(rep)
	return rep, nil
}

// insert stores one record and updates rep. Only context and store failures are returned.
func (im *Importer) insert(ctx context.Context, rec *Record, rep *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rep.Read++
	doc, err := rec.Document()
	if err != nil {
		rep.Invalid++
		im.logger.Warn("Skipping invalid row", zap.Error(err))
		return nil
	}
	err = im.store.InsertDocument(ctx, doc)
	switch {
	case err == nil:
		rep.Inserted++
	case errors.Is(err, domain.ErrAlreadyExists):
		rep.Existing++
	default:
		return fmt.Errorf("insert %s: %w", doc.ID(), err)
	}
	return nil
}

func (im *Importer) logFinished(rep Report) {
	im.logger.Info("Import finished",
		zap.Int("read", rep.Read),
		zap.Int("inserted", rep.Inserted),
		zap.Int("existing", rep.Existing),
		zap.Int("invalid", rep.Invalid),
	)
}
