package dataset

import "context"

// SpreadsheetReader is the collaborator interface a concrete XLSX/ODS reader
// would satisfy to feed series data from spreadsheet cells instead of CSV
// files. Reading spreadsheets is out of core scope (Non-goals); no
// implementation ships, only the seam a caller can plug one into via
// Loader.WithSpreadsheetReader.
type SpreadsheetReader interface {
	ReadCell(ctx context.Context, path, tab, cell string) (string, error)
}
