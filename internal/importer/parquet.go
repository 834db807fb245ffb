package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

const rowBatch = 1000

// columns holds leaf column indexes, -1 when absent.
type columns struct {
	id, pubNumber, title, abstract, cpc, class, filingDate, claims int
}

// resolveColumns finds leaf-level column indexes by top-level name.
func resolveColumns(pf *parquet.File) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1, -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "id":
			c.id = i
		case "publication_number":
			c.pubNumber = i
		case "title":
			c.title = i
		case "abstract":
			c.abstract = i
		case "cpc":
			c.cpc = i
		case "classification":
			c.class = i
		case "filing_date":
			c.filingDate = i
		case "claims_count":
			c.claims = i
		}
	}
	return c
}

// ImportParquet streams every row group of a Parquet file. Columns are matched by name
// so both id and publication_number layouts load; list columns keep their first value.
func (im *Importer) ImportParquet(ctx context.Context, path string) (Report, error) {
	var rep Report

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return rep, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	stat, err := f.Stat()
	if err != nil {
		return rep, fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return rep, fmt.Errorf("open parquet %s: %w", path, err)
	}

	cols := resolveColumns(pf)
	if cols.id < 0 && cols.pubNumber < 0 {
		return rep, fmt.Errorf("%s: no id or publication_number column", path)
	}

	for gi, rg := range pf.RowGroups() {
		if err := im.readRowGroup(ctx, rg, cols, &rep); err != nil {
			return rep, fmt.Errorf("row group %d: %w", gi, err)
		}
		im.logger.Debug("Row group loaded", zap.Int("group", gi), zap.Int64("rows", rg.NumRows()))
	}
	im.logFinished(rep)
	return rep, nil
}

func (im *Importer) readRowGroup(ctx context.Context, rg parquet.RowGroup, cols columns, rep *Report) error {
	rows := parquet.NewRowGroupReader(rg)
	buf := make([]parquet.Row, rowBatch)
	for {
		n, readErr := rows.ReadRows(buf)
		for i := range n {
			rec := rowToRecord(buf[i], cols)
			if err := im.insert(ctx, &rec, rep); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read rows: %w", readErr)
		}
	}
}

// rowToRecord extracts a Record from a generic row by column index.
func rowToRecord(row parquet.Row, cols columns) Record {
	var rec Record
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.id:
			rec.ID = v.String()
		case cols.pubNumber:
			rec.PublicationNumber = v.String()
		case cols.title:
			rec.Title = firstString(rec.Title, v)
		case cols.abstract:
			rec.Abstract = firstString(rec.Abstract, v)
		case cols.cpc:
			rec.CPC = firstString(rec.CPC, v)
		case cols.class:
			rec.Classification = firstString(rec.Classification, v)
		case cols.filingDate:
			rec.FilingDate = valueString(v)
		case cols.claims:
			if n, err := strconv.Atoi(valueString(v)); err == nil {
				rec.ClaimsCount = n
			}
		}
	}
	return rec
}

// firstString keeps the first value seen for repeated columns.
func firstString(cur string, v parquet.Value) string {
	if cur != "" {
		return cur
	}
	return v.String()
}

func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	default:
		return v.String()
	}
}
