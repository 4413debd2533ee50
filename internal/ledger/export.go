package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvPrinter = message.NewPrinter(language.English)

// WriteStatementCSV serializes a statement in the order its lines were
// folded, one movement per row, with a trailing ending-balance row.
func WriteStatementCSV(w io.Writer, st Statement) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "created_at", "type", "quantity", "signed_quantity", "note", "balance_after"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, line := range st.Lines {
		record := []string{
			strconv.FormatInt(line.ID, 10),
			line.CreatedAt.UTC().Format(time.RFC3339),
			string(line.Type),
			formatQuantity(line.Quantity),
			formatQuantity(line.SignedQuantity),
			line.Note,
			formatQuantity(line.BalanceAfter),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	summary := []string{"", "", "ENDING", "", "", "", formatQuantity(st.EndingBalance)}
	if err := cw.Write(summary); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func formatQuantity(v float64) string {
	return csvPrinter.Sprintf("%v", v)
}
