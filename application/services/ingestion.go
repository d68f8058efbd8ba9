package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SpreadsheetRow is one row of the catalog spreadsheet export
type SpreadsheetRow struct {
	Title    string
	Venue    string
	Year     string
	Authors  string
	Abstract string
	Keywords string
	Country  string
}

// NormalizeTitle prepares a title or file name for matching: ':', '.' and
// ',' are stripped, the rest lowercased and trimmed.
func NormalizeTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '.', ',':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(strings.ToLower(s))
}

// MatchRow finds the spreadsheet row describing the given file: the first
// row whose normalized title is contained in the normalized file name
// wins. Returns nil when nothing matches; the caller must skip the file
// with a warning rather than abort the batch. Pure with respect to its
// inputs.
func MatchRow(fileName string, rows []SpreadsheetRow) *SpreadsheetRow {
	normalized := NormalizeTitle(fileName)
	for i := range rows {
		title := NormalizeTitle(rows[i].Title)
		if title == "" {
			continue
		}
		if strings.Contains(normalized, title) {
			return &rows[i]
		}
	}
	return nil
}

// CreateInput maps a matched row plus its file to the document write
// model. Tags are synthesized from the venue name and the keyword list.
func (r SpreadsheetRow) CreateInput(file *FileUpload) CreateDocumentInput {
	return CreateDocumentInput{
		Title:       r.Title,
		Authors:     r.Authors,
		Location:    r.Country,
		Date:        r.Year,
		Tags:        r.Venue + "," + r.Keywords,
		Description: r.Abstract,
		File:        file,
	}
}

// IngestReport summarizes one batch run
type IngestReport struct {
	Ingested int
	Skipped  int
	Failed   int
	Errors   []string
}

// Ingestor feeds a folder of PDF files through the matcher and into the
// document service
type Ingestor struct {
	svc     *DocumentService
	workers int
	logger  *zap.Logger
}

// NewIngestor creates a batch ingestor running at most workers uploads in
// parallel. Collection mutations stay serialized by the repository; the
// parallelism only overlaps file reads and blob uploads.
func NewIngestor(svc *DocumentService, workers int, logger *zap.Logger) *Ingestor {
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{svc: svc, workers: workers, logger: logger}
}

// IngestDir walks the base folder (including its year subfolders),
// ingesting every PDF that matches a spreadsheet row. Unmatched or
// invalid files are skipped with a warning; the batch never aborts
// wholesale.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string, rows []SpreadsheetRow) (IngestReport, error) {
	files, err := collectPDFs(dir)
	if err != nil {
		return IngestReport{}, err
	}

	var (
		mu     sync.Mutex
		report IngestReport
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			outcome, err := ing.IngestFile(ctx, file, rows)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", filepath.Base(file), err))
			case outcome:
				report.Ingested++
			default:
				report.Skipped++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// IngestFile ingests a single file. It reports (false, nil) when the file
// has no matching spreadsheet row.
func (ing *Ingestor) IngestFile(ctx context.Context, path string, rows []SpreadsheetRow) (bool, error) {
	name := filepath.Base(path)

	row := MatchRow(name, rows)
	if row == nil {
		ing.logger.Warn("no spreadsheet row matches file, skipping",
			zap.String("file", name),
		)
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}

	input := row.CreateInput(&FileUpload{
		Name:        name,
		ContentType: "application/pdf",
		Data:        data,
	})

	doc, err := ing.svc.Create(ctx, input)
	if err != nil {
		return false, err
	}

	ing.logger.Info("document ingested",
		zap.String("file", name),
		zap.String("documentID", doc.ID),
		zap.String("title", doc.Title),
	)
	return true, nil
}

// collectPDFs walks the folder tree under dir collecting PDF files at any
// depth (the catalog drops are partitioned into year subfolders)
func collectPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
