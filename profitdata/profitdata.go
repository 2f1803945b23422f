// Package profitdata loads the yearly residential-sale profit series
// that drives the flow chart, plus the home-price-index side series.
package profitdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	columnYear              = "year"
	columnInvestorProfit    = "total investor profit"
	columnNonInvestorProfit = "noninvestor profit"
	columnHomePriceIndex    = "home price index"
)

// ProfitRecord is one aggregated year of the dataset. Immutable once loaded.
type ProfitRecord struct {
	Year              int     `json:"year"`
	InvestorProfit    float64 `json:"investorProfit"`
	NonInvestorProfit float64 `json:"nonInvestorProfit"`
}

// HPIRecord maps a year to a home price index value, used for the
// informational display next to the chart.
type HPIRecord struct {
	Year  int     `json:"year"`
	Index float64 `json:"index"`
}

// MalformedRecordError reports a non-numeric field in the tabular input.
// Loading aborts on the first malformed row, there is no retry.
type MalformedRecordError struct {
	Row    int
	Column string
	Value  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in row %d: column %q has non-numeric value %q", e.Row, e.Column, e.Value)
}

// Series is the sorted, de-duplicated profit time series. Invariants:
// ascending years, no duplicate years, at least 2 records.
type Series struct {
	records []ProfitRecord
}

// NewSeries sorts records ascending by year and drops duplicate years,
// keeping the first occurrence.
func NewSeries(records []ProfitRecord) (*Series, error) {
	records = lo.UniqBy(records, func(r ProfitRecord) int { return r.Year })
	sort.SliceStable(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	if len(records) < 2 {
		return nil, errors.Errorf("profit series needs at least 2 distinct years, got %d", len(records))
	}
	return &Series{records: records}, nil
}

func (s *Series) Records() []ProfitRecord { return s.records }
func (s *Series) MinYear() int            { return s.records[0].Year }
func (s *Series) MaxYear() int            { return s.records[len(s.records)-1].Year }

// LoadProfits parses the aggregated sales CSV. Expected header columns
// are "year", "total investor profit" and "noninvestor profit" (case
// insensitive); any other columns are ignored.
func LoadProfits(r io.Reader) (*Series, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}
	yearIdx, err := header.index(columnYear)
	if err != nil {
		return nil, err
	}
	invIdx, err := header.index(columnInvestorProfit)
	if err != nil {
		return nil, err
	}
	nonIdx, err := header.index(columnNonInvestorProfit)
	if err != nil {
		return nil, err
	}
	records := []ProfitRecord{}
	for i, row := range rows {
		year, err := parseYear(row, i, yearIdx)
		if err != nil {
			return nil, err
		}
		inv, err := parseFloat(row, i, invIdx, columnInvestorProfit)
		if err != nil {
			return nil, err
		}
		non, err := parseFloat(row, i, nonIdx, columnNonInvestorProfit)
		if err != nil {
			return nil, err
		}
		records = append(records, ProfitRecord{Year: year, InvestorProfit: inv, NonInvestorProfit: non})
	}
	return NewSeries(records)
}

// HPISeries is the sorted year -> home price index series.
type HPISeries struct {
	records []HPIRecord
}

func NewHPISeries(records []HPIRecord) (*HPISeries, error) {
	records = lo.UniqBy(records, func(r HPIRecord) int { return r.Year })
	sort.SliceStable(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	if len(records) == 0 {
		return nil, errors.New("home price index series is empty")
	}
	return &HPISeries{records: records}, nil
}

func (s *HPISeries) Records() []HPIRecord { return s.records }

// LoadHPI parses the home price index CSV with header columns "year"
// and "home price index".
func LoadHPI(r io.Reader) (*HPISeries, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}
	yearIdx, err := header.index(columnYear)
	if err != nil {
		return nil, err
	}
	hpiIdx, err := header.index(columnHomePriceIndex)
	if err != nil {
		return nil, err
	}
	records := []HPIRecord{}
	for i, row := range rows {
		year, err := parseYear(row, i, yearIdx)
		if err != nil {
			return nil, err
		}
		index, err := parseFloat(row, i, hpiIdx, columnHomePriceIndex)
		if err != nil {
			return nil, err
		}
		records = append(records, HPIRecord{Year: year, Index: index})
	}
	return NewHPISeries(records)
}

type tableHeader []string

func (h tableHeader) index(name string) (int, error) {
	for i, col := range h {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i, nil
		}
	}
	return 0, errors.Errorf("missing column %q in header %v", name, []string(h))
}

func readTable(r io.Reader) ([][]string, tableHeader, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read tabular data")
	}
	if len(all) < 1 {
		return nil, nil, errors.New("tabular data has no header row")
	}
	return all[1:], tableHeader(all[0]), nil
}

// parseYear accepts "2004" as well as "2004.0", which pandas emits for
// integer columns that passed through a float dtype.
func parseYear(row []string, rowIdx, colIdx int) (int, error) {
	raw := strings.TrimSpace(row[colIdx])
	if year, err := strconv.Atoi(raw); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, &MalformedRecordError{Row: rowIdx + 1, Column: columnYear, Value: raw}
	}
	return int(f), nil
}

func parseFloat(row []string, rowIdx, colIdx int, column string) (float64, error) {
	raw := strings.TrimSpace(row[colIdx])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &MalformedRecordError{Row: rowIdx + 1, Column: column, Value: raw}
	}
	return f, nil
}
