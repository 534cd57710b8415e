package reports

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"github.com/xuri/excelize/v2"
)

const expenseSheet = "Expenses"

// ExportExpenses writes the tenant's committed expenses as a spreadsheet,
// newest first.
func ExportExpenses(ctx context.Context, docs store.DocumentStore, tenantId string, w io.Writer) error {
	records, err := docs.List(ctx, models.CollectionExpenses, tenantId)
	if err != nil {
		return err
	}

	expenses := make([]*models.Expense, 0, len(records))
	for id, doc := range records {
		e, err := models.ExpenseFromDocument(id, doc)
		if err != nil {
			return fmt.Errorf("expense %s: %w", id, err)
		}
		expenses = append(expenses, e)
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].ExpenseDate > expenses[j].ExpenseDate
	})

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", expenseSheet)

	headers := []string{"Date", "Description", "Category", "Amount", "Notes", "Receipts"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(expenseSheet, cell, h)
	}

	for row, e := range expenses {
		values := []any{
			formatMillis(e.ExpenseDate),
			e.Description,
			e.Category,
			e.Amount.StringFixed(2),
			e.Notes,
			len(e.ImageUrls),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(expenseSheet, cell, v)
		}
	}

	return f.Write(w)
}

func formatMillis(m models.Millis) string {
	if m == 0 {
		return ""
	}
	return time.UnixMilli(int64(m)).UTC().Format("2006-01-02")
}
