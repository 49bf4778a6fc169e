package export

import (
	"strconv"

	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "02/01/2006"

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func Enquiries(enquiries []models.Enquiry) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(enquiries))
	for _, e := range enquiries {
		rows = append(rows, []interface{}{
			e.EnquiryNo, e.EnquiryDate.Format(dateLayout), e.StudentName, e.MobileNo, e.Course, e.Address,
		})
	}
	return Build(Sheet{
		Name:    "Enquiries",
		Headers: []string{"Enquiry No", "Date", "Student Name", "Mobile", "Course", "Address"},
		Rows:    rows,
	})
}

func Admissions(admissions []models.Admission) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(admissions))
	for _, a := range admissions {
		status := "Active"
		if !a.IsActive {
			status = "Inactive"
		}
		rows = append(rows, []interface{}{
			a.FormNo, a.AdmissionDate.Format(dateLayout), a.FullName(), a.CourseName, a.Batch,
			a.MobileOwn, a.MobileParents, strconv.Itoa(a.Installments),
			money(a.TotalFee), money(a.PaidFee), money(a.RemainingFee()), status,
		})
	}
	return Build(Sheet{
		Name: "Admissions",
		Headers: []string{
			"Form No", "Admission Date", "Student Name", "Course", "Batch", "Mobile", "Parent Mobile",
			"Installments", "Total Fee", "Paid Fee", "Balance", "Status",
		},
		Rows: rows,
	})
}

// Payments expects each payment's Admission relation to be loaded.
func Payments(payments []models.Payment) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(payments))
	for _, p := range payments {
		formNo, name := "", ""
		if p.Admission != nil {
			formNo, name = p.Admission.FormNo, p.Admission.FullName()
		}
		rows = append(rows, []interface{}{
			p.ReceiptNo, p.PaidAt.Format(dateLayout), formNo, name, string(p.Mode), p.Reference, money(p.Amount),
		})
	}
	return Build(Sheet{
		Name:    "Payments",
		Headers: []string{"Receipt No", "Date", "Form No", "Student Name", "Mode", "Reference", "Amount"},
		Rows:    rows,
	})
}

// Bills writes a summary sheet and an item sheet. Items must be loaded.
func Bills(bills []models.Bill) (*excelize.File, error) {
	summary := make([][]interface{}, 0, len(bills))
	var items [][]interface{}
	for _, b := range bills {
		date := b.BillDate.Format(dateLayout)
		summary = append(summary, []interface{}{
			b.ReceiptNo, date, b.CustomerName, b.CustomerMobile, len(b.Items), money(b.TotalAmount),
		})
		for _, it := range b.Items {
			items = append(items, []interface{}{
				b.ReceiptNo, date, b.CustomerName, it.ItemName, money(it.Quantity), money(it.Rate), money(it.Amount),
			})
		}
	}
	return Build(
		Sheet{
			Name:       "Bills Summary",
			HeaderFill: blueFill,
			Headers:    []string{"Receipt No", "Date", "Customer Name", "Mobile", "Items Count", "Total Amount"},
			Rows:       summary,
		},
		Sheet{
			Name:       "Items Details",
			HeaderFill: greenFill,
			Headers:    []string{"Receipt No", "Bill Date", "Customer Name", "Item Name", "Quantity", "Rate", "Amount"},
			Rows:       items,
		},
	)
}
