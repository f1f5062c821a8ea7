package discovery

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// ExportRecord is the flat per-candidate row exposed to downstream
// formatters. Fundamental fields are pointers so missing data exports
// as empty rather than zero.
type ExportRecord struct {
	Market          string   `json:"market"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Price           *float64 `json:"price,omitempty"`
	MemeScore       int      `json:"memeScore"`
	QuantScore      int      `json:"quantScore"`
	IsPennyStock    bool     `json:"isPennyStock"`
	PER             *float64 `json:"per,omitempty"`
	PBR             *float64 `json:"pbr,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
	DebtRatio       *float64 `json:"debtRatio,omitempty"`
	RevenueGrowth   *float64 `json:"revenueGrowth,omitempty"`
	MarketCap       float64  `json:"marketCap"`
	MatchedKeywords string   `json:"matchedKeywords"` // ";"-joined
}

// Export flattens a session's candidates into export records, in
// session order.
func Export(session *Session) []ExportRecord {
	records := make([]ExportRecord, 0, len(session.Candidates))
	for _, c := range session.Candidates {
		rec := ExportRecord{
			Market:          c.Market,
			Symbol:          c.Symbol,
			Name:            c.Name,
			MemeScore:       c.Scores.MemeScore,
			QuantScore:      c.Scores.QuantScore,
			IsPennyStock:    c.Scores.PennyStock,
			MarketCap:       c.MarketCap,
			MatchedKeywords: strings.Join(c.MatchedTerms, ";"),
		}
		if c.Price != nil {
			price := c.Price.Price
			rec.Price = &price
		}
		if f := c.Fundamentals; f != nil {
			pe, pb, roe, debt, growth := f.PE, f.PB, f.ROE, f.DebtRatio, f.RevenueGrowth
			rec.PER = &pe
			rec.PBR = &pb
			rec.ROE = &roe
			rec.DebtRatio = &debt
			rec.RevenueGrowth = &growth
		}
		records = append(records, rec)
	}
	return records
}

var exportHeader = []string{
	"market", "symbol", "name", "price", "memeScore", "quantScore",
	"isPennyStock", "per", "pbr", "roe", "debtRatio", "revenueGrowth",
	"marketCap", "matchedKeywords",
}

// WriteCSV writes a session's export records as CSV, header first.
func WriteCSV(w io.Writer, session *Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, rec := range Export(session) {
		row := []string{
			rec.Market,
			rec.Symbol,
			rec.Name,
			formatOptFloat(rec.Price),
			strconv.Itoa(rec.MemeScore),
			strconv.Itoa(rec.QuantScore),
			strconv.FormatBool(rec.IsPennyStock),
			formatOptFloat(rec.PER),
			formatOptFloat(rec.PBR),
			formatOptFloat(rec.ROE),
			formatOptFloat(rec.DebtRatio),
			formatOptFloat(rec.RevenueGrowth),
			strconv.FormatFloat(rec.MarketCap, 'f', -1, 64),
			rec.MatchedKeywords,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
