// Command seedboq converts a fixed-layout BOQ workbook into a SQL seed
// file for a new project. The first sheet must carry the columns
// Description | Unit | Quantity | Rate | Tax Rate, with one header row.
// Usage: go run ./cmd/seedboq <boq.xlsx> <project name> <client name> <company state> <client state>
// Output: db/seeds/boq_<project>.sql
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"rabill/internal/matcher"
)

type boqRow struct {
	description string
	unit        string
	quantity    decimal.Decimal
	rate        decimal.Decimal
	taxRate     decimal.Decimal
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) != 6 {
		fmt.Println("Usage: seedboq <boq.xlsx> <project name> <client name> <company state> <client state>")
		os.Exit(1)
	}
	xlsxPath, projectName, clientName := os.Args[1], os.Args[2], os.Args[3]
	companyState, clientState := os.Args[4], os.Args[5]

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open BOQ workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("sheet %q has no data rows", sheet)
	}

	var entries []boqRow
	for i, row := range rows[1:] {
		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		entry := boqRow{
			description: strings.TrimSpace(row[0]),
			unit:        strings.TrimSpace(row[1]),
		}
		if entry.quantity, err = decimal.NewFromString(strings.TrimSpace(row[2])); err != nil {
			return fmt.Errorf("row %d: bad quantity %q", i+2, row[2])
		}
		if entry.rate, err = decimal.NewFromString(strings.TrimSpace(row[3])); err != nil {
			return fmt.Errorf("row %d: bad rate %q", i+2, row[3])
		}
		entry.taxRate = decimal.Zero
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			if entry.taxRate, err = decimal.NewFromString(strings.TrimSpace(row[4])); err != nil {
				return fmt.Errorf("row %d: bad tax rate %q", i+2, row[4])
			}
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return fmt.Errorf("sheet %q has no usable BOQ rows", sheet)
	}
	log.Printf("parsed %d BOQ rows from %s", len(entries), xlsxPath)

	outPath := filepath.Join("db", "seeds",
		fmt.Sprintf("boq_%s.sql", strings.ReplaceAll(strings.ToLower(projectName), " ", "_")))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create seeds dir: %w", err)
	}

	var b strings.Builder
	projectID := uuid.New()
	fmt.Fprintf(&b, "INSERT INTO projects (id, name, client_name, company_state_code, client_state_code, next_ra, created_at, updated_at)\n")
	fmt.Fprintf(&b, "VALUES ('%s', %s, %s, %s, %s, 1, NOW(), NOW());\n\n",
		projectID, quote(projectName), quote(clientName), quote(companyState), quote(clientState))

	fmt.Fprintf(&b, "INSERT INTO boq_items (id, project_id, seq, description, normalized_description, unit, authorized_qty, rate, tax_rate, billed_qty, version, created_at) VALUES\n")
	for i, e := range entries {
		sep := ","
		if i == len(entries)-1 {
			sep = ";"
		}
		fmt.Fprintf(&b, "('%s', '%s', %d, %s, %s, %s, %s, %s, %s, 0, 1, NOW())%s\n",
			uuid.New(), projectID, i+1,
			quote(e.description), quote(matcher.Normalize(e.description)), quote(e.unit),
			e.quantity, e.rate, e.taxRate, sep)
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write seed file: %w", err)
	}
	log.Printf("wrote %s", outPath)
	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
