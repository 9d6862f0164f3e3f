package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StoreNames maps operating unit numbers to outlet names.
type StoreNames map[string]string

// Name returns the mapped name, or "" when unknown.
func (n StoreNames) Name(id string) string {
	return n[strings.TrimSpace(id)]
}

// ParseStoreNames reads the first sheet of an xlsx workbook. The id column is
// the first header mentioning a store number or id, the name column the
// first mentioning an outlet or a non-store name. Columns 0 and 1 are used
// when no header matches.
func ParseStoreNames(r io.Reader) (StoreNames, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sources: open store mapping: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return StoreNames{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sources: read store mapping: %w", err)
	}
	if len(rows) == 0 {
		return StoreNames{}, nil
	}

	idCol, nameCol := mappingColumns(rows[0])
	names := make(StoreNames, len(rows)-1)
	for _, row := range rows[1:] {
		id := cellAt(row, idCol)
		name := cellAt(row, nameCol)
		if id == "" || name == "" || strings.EqualFold(id, "nan") || strings.EqualFold(name, "nan") {
			continue
		}
		names[id] = name
	}
	return names, nil
}

func mappingColumns(header []string) (idCol, nameCol int) {
	idCol, nameCol = -1, -1
	for i, h := range header {
		h = strings.ToLower(h)
		if idCol < 0 && strings.Contains(h, "store") && (strings.Contains(h, "number") || strings.Contains(h, "id")) {
			idCol = i
			continue
		}
		if nameCol < 0 && (strings.Contains(h, "outlet") || (strings.Contains(h, "name") && !strings.Contains(h, "store"))) {
			nameCol = i
		}
	}
	if idCol < 0 {
		idCol = 0
	}
	if nameCol < 0 {
		nameCol = 1
	}
	return idCol, nameCol
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Mapping loads StoreNames once from a workbook URL.
type Mapping struct {
	loader *Loader[StoreNames]
}

// NewMapping fetches the workbook at url. An empty url yields no names.
func NewMapping(client *http.Client, url string) *Mapping {
	return &Mapping{loader: NewLoader(func(ctx context.Context) (StoreNames, error) {
		if url == "" {
			return StoreNames{}, nil
		}
		body, err := get(ctx, client, url)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return ParseStoreNames(body)
	})}
}

// Load returns the mapping.
func (m *Mapping) Load(ctx context.Context) (StoreNames, error) {
	if m == nil {
		return StoreNames{}, nil
	}
	return m.loader.Load(ctx)
}

// Invalidate forces the next Load to refetch.
func (m *Mapping) Invalidate() {
	if m != nil {
		m.loader.Invalidate()
	}
}
