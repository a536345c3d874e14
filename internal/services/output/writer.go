package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/models"
)

// Writer persists run artifacts under the configured output directory:
// one CSV of harvested leads per session, one enriched CSV alongside it,
// and screenshots captured when a run fails.
type Writer struct {
	dir    string
	logger arbor.ILogger
}

// NewWriter creates the artifact writer and its output directory.
func NewWriter(dir string, logger arbor.ILogger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// LeadsPath returns the harvested leads CSV path for a session.
func (w *Writer) LeadsPath(sessionID string) string {
	return filepath.Join(w.dir, sessionID+".csv")
}

// EnrichedLeadsPath returns the enriched leads CSV path for a session.
func (w *Writer) EnrichedLeadsPath(sessionID string) string {
	return filepath.Join(w.dir, sessionID+"_leads_pro.csv")
}

// WriteLeads writes the harvested leads CSV. An empty run still produces
// the file with its header so downstream consumers see a stable shape.
func (w *Writer) WriteLeads(sessionID string, leads []models.LeadRecord) (string, error) {
	path := w.LeadsPath(sessionID)
	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, lead.CSVRow())
	}
	if err := w.writeCSV(path, models.LeadCSVHeader, rows); err != nil {
		return "", err
	}
	w.logger.Info().Str("path", path).Int("leads", len(leads)).Msg("Leads CSV written")
	return path, nil
}

// WriteEnrichedLeads writes the enriched leads CSV.
func (w *Writer) WriteEnrichedLeads(sessionID string, leads []models.EnrichedLeadRecord) (string, error) {
	path := w.EnrichedLeadsPath(sessionID)
	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, lead.CSVRow())
	}
	if err := w.writeCSV(path, models.EnrichedLeadCSVHeader, rows); err != nil {
		return "", err
	}
	w.logger.Info().Str("path", path).Int("leads", len(leads)).Msg("Enriched leads CSV written")
	return path, nil
}

func (w *Writer) writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// WriteScreenshot saves a failure screenshot for a session, stamped so
// repeated failures in one session do not overwrite each other.
func (w *Writer) WriteScreenshot(sessionID string, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("empty screenshot")
	}
	name := fmt.Sprintf("%s_%s.png", sessionID, time.Now().Format("20060102-150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	w.logger.Info().Str("path", path).Msg("Failure screenshot written")
	return path, nil
}

// ReadLeads loads a previously written leads CSV, skipping the header.
func (w *Writer) ReadLeads(sessionID string) ([]models.LeadRecord, error) {
	file, err := os.Open(w.LeadsPath(sessionID))
	if err != nil {
		return nil, fmt.Errorf("open leads CSV: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read leads CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("leads CSV is empty")
	}

	leads := make([]models.LeadRecord, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) != len(models.LeadCSVHeader) {
			return nil, fmt.Errorf("malformed leads row: %d columns", len(row))
		}
		leads = append(leads, models.LeadRecord{
			Name:        row[0],
			Title:       row[1],
			ProfileLink: row[2],
			Company:     row[3],
			CompanyLink: row[4],
			Location:    row[5],
		})
	}
	return leads, nil
}
