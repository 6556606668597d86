package tariff

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AttachmentSource is a Repository backed by a tabular tariff file. The file
// is parsed once on first access and the grouped result is kept for the
// process lifetime; later lookups are pure map reads.
type AttachmentSource struct {
	path string
	log  *zap.Logger

	once       sync.Once
	byContract map[string]*ContractTariff
	parseErr   error
}

// NewAttachmentSource creates an attachment source over the given file path.
// The file is not opened until the first lookup.
func NewAttachmentSource(path string, log *zap.Logger) *AttachmentSource {
	return &AttachmentSource{path: path, log: log}
}

// Filename returns the base name of the backing file.
func (s *AttachmentSource) Filename() string {
	return filepath.Base(s.path)
}

// FindByContractID returns the tariff for a contract, or (nil, nil) when the
// file holds no rows for it.
func (s *AttachmentSource) FindByContractID(ctx context.Context, contractID string) (*ContractTariff, error) {
	s.once.Do(s.load)
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return s.byContract[contractID], nil
}

func (s *AttachmentSource) load() {
	start := time.Now()
	data, skipped, err := parseTariffFile(s.path)
	if err != nil {
		s.parseErr = err
		return
	}
	s.byContract = data
	s.log.Info("tariff attachment parsed",
		zap.String("file", s.path),
		zap.Int("contracts", len(data)),
		zap.Int("skipped_rows", skipped),
		zap.Duration("elapsed", time.Since(start)))
}

// attachment column headers, matched case-insensitively after trimming
var (
	contractCols = []string{"convenio", "contract"}
	descrCols    = []string{"descr_convenio", "descripcion", "description"}
	tierCols     = []string{"tramo", "tier"}
	priceCols    = []string{"precio", "price", "valor"}
	fromCols     = []string{"fecha admision", "fecha_admision", "fecha inicio", "fecha_inicio", "valid_from"}
	toCols       = []string{"fecha fin", "fecha_fin", "valid_to"}
)

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// parseTariffFile reads the whole file and groups rows by contract id.
// Rows with a blank contract id or a non-numeric/non-positive price are
// skipped. A contract is tiered when any of its rows carries a tier value.
func parseTariffFile(path string) (map[string]*ContractTariff, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open tariff attachment %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)

	// Skip UTF-8 BOM if present
	if bom, err := br.Peek(3); err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read tariff header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[normalizeHeader(h)] = i
	}

	contractIdx := firstCol(colIdx, contractCols)
	priceIdx := firstCol(colIdx, priceCols)
	if contractIdx < 0 || priceIdx < 0 {
		return nil, 0, fmt.Errorf("tariff attachment %s: missing contract or price column", path)
	}
	descrIdx := firstCol(colIdx, descrCols)
	tierIdx := firstCol(colIdx, tierCols)
	fromIdx := firstCol(colIdx, fromCols)
	toIdx := firstCol(colIdx, toCols)

	data := make(map[string]*ContractTariff)
	skipped := 0

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read tariff rows: %w", err)
	}

	for _, row := range rows {
		contractID := cellAt(row, contractIdx)
		price, ok := parsePrice(cellAt(row, priceIdx))
		if contractID == "" || !ok {
			skipped++
			continue
		}

		entry := PriceEntry{
			Tier:  parseTier(cellAt(row, tierIdx)),
			Value: price,
			Validity: Validity{
				From: parseDate(cellAt(row, fromIdx)),
				To:   parseDate(cellAt(row, toIdx)),
			},
		}

		ct, seen := data[contractID]
		if !seen {
			ct = &ContractTariff{ContractID: contractID, Scheme: FlatPrice}
			data[contractID] = ct
		}
		if descr := cellAt(row, descrIdx); descr != "" {
			ct.Description = descr
		}
		if entry.Tier != TierNone {
			ct.Scheme = TieredByWeight
		}
		ct.Entries = append(ct.Entries, entry)
	}

	return data, skipped, nil
}

// normalizeHeader lowercases and trims a header cell, dropping accents the
// source files commonly carry on "admisión".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(h)
}

func firstCol(colIdx map[string]int, names []string) int {
	for _, n := range names {
		if i, ok := colIdx[n]; ok {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePrice tolerates currency symbols and thousands separators the way the
// source spreadsheets format amounts. Non-positive prices are rejected.
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() <= 0 {
		return decimal.Zero, false
	}
	return d, true
}

func parseTier(s string) TierLabel {
	switch strings.ToUpper(s) {
	case "T1":
		return Tier1
	case "T2":
		return Tier2
	case "T3":
		return Tier3
	default:
		return TierNone
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
