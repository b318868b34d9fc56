// Package roster normalizes loan-contract rows scattered across the
// fetched sheets into the canonical contract list.
package roster

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"koperasi-collection-backend/internal/domain/contract"
	"koperasi-collection-backend/internal/domain/customer"
	"koperasi-collection-backend/pkg/schedule"
	"koperasi-collection-backend/pkg/sheet"
)

// Sheets checked for contract rows by name, in priority order, before the
// shape-based scan over everything else.
var knownLoanSheets = []string{"penagihan_list", "jadwal_global", "PINJAMAN_AKTIF", "pinjaman"}

var (
	// exact keys only: "id" through fuzzy matching would pick up
	// id_nasabah and mint contracts out of customer rows
	loanIDKeys       = []string{"id_pinjaman", "id", "id_pinjam"}
	loanDatePatterns = []string{"tanggal", "tgl_cair", "tgl", "tanggal_pinjam", "date", "tanggal_acc"}
)

func loanID(rec sheet.Record) string {
	for _, k := range loanIDKeys {
		if s := strings.TrimSpace(sheet.Stringify(rec[k])); s != "" {
			return s
		}
	}
	return ""
}

// Collect gathers every row that looks like a loan contract, first from
// the well-known roster sheets, then from any sheet whose rows carry both
// a borrower id and a loan id. The first row seen for a loan id wins.
func Collect(data map[string][]sheet.Record) []contract.LoanContract {
	var rows []sheet.Record
	seen := make(map[string]struct{})

	add := func(list []sheet.Record) {
		for _, rec := range list {
			if len(rec) == 0 {
				continue
			}
			id := loanID(rec)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, rec)
		}
	}

	for _, key := range knownLoanSheets {
		add(data[key])
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		list := data[key]
		if len(list) == 0 {
			continue
		}
		first := list[0]
		hasCustomer := first["id_nasabah"] != nil || first["id_nasabah_list"] != nil
		hasLoan := first["id_pinjaman"] != nil || first["id_pinjam"] != nil
		if hasCustomer && hasLoan {
			add(list)
		}
	}

	out := make([]contract.LoanContract, 0, len(rows))
	for _, rec := range rows {
		out = append(out, normalize(rec))
	}
	return out
}

func normalize(rec sheet.Record) contract.LoanContract {
	c := contract.LoanContract{
		LoanID:      loanID(rec),
		DisbursedAt: schedule.ParseDate(rawField(rec, loanDatePatterns)),
		CustomerID:  sheet.String(rec, []string{"id_nasabah"}),
		Nama:        sheet.String(rec, []string{"nama"}),
		Principal:   sheet.Number(rec, []string{"pokok"}),
		InterestPct: sheet.Number(rec, []string{"bunga_persen", "bunga"}),
		Tenor:       int(sheet.Number(rec, []string{"tenor"})),
		Petugas:     sheet.String(rec, []string{"petugas"}),
		ProofPhoto:  sheet.String(rec, []string{"foto_bukti"}),
		Status:      parseStatus(sheet.String(rec, []string{"status"})),
	}

	if v, ok := sheet.FindValue(rec, []string{"total_hutang"}); ok {
		c.TotalPayable = sheet.CleanNumber(v)
	}
	if v, ok := sheet.FindValue(rec, []string{"cicilan"}); ok {
		c.Installment = sheet.CleanNumber(v)
	}
	remainingGiven := false
	if v, ok := sheet.FindValue(rec, []string{"sisa_hutang"}); ok {
		c.Remaining = sheet.CleanNumber(v)
		remainingGiven = true
	} else {
		c.Remaining = c.TotalPayable
	}
	if v, ok := sheet.FindValue(rec, []string{"update_terakhir"}); ok {
		c.UpdatedAt = schedule.ParseDate(v)
	}

	deriveMoneyFields(&c, remainingGiven)
	return c
}

// deriveMoneyFields fills total payable and installment when the sheet
// left them blank. Decimal arithmetic keeps principal x (1 + rate%) exact
// before rounding to whole rupiah.
func deriveMoneyFields(c *contract.LoanContract, remainingGiven bool) {
	if c.TotalPayable == 0 && c.Principal > 0 {
		principal := decimal.NewFromFloat(c.Principal)
		rate := decimal.NewFromFloat(c.InterestPct).Div(decimal.NewFromInt(100))
		total := principal.Mul(decimal.NewFromInt(1).Add(rate)).Round(0)
		c.TotalPayable, _ = total.Float64()
		if !remainingGiven {
			c.Remaining = c.TotalPayable
		}
	}
	if c.Installment == 0 && c.Tenor > 0 && c.TotalPayable > 0 {
		per := decimal.NewFromFloat(c.TotalPayable).
			Div(decimal.NewFromInt(int64(c.Tenor))).
			Round(0)
		c.Installment, _ = per.Float64()
	}
}

func parseStatus(raw string) contract.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lunas":
		return contract.StatusSettled
	case "aktif", "":
		return contract.StatusActive
	default:
		return contract.Status(raw)
	}
}

func rawField(rec sheet.Record, patterns []string) any {
	for _, p := range patterns {
		if v, ok := rec[p]; ok && strings.TrimSpace(sheet.Stringify(v)) != "" {
			return v
		}
	}
	v, _ := sheet.FindValue(rec, patterns)
	return v
}

// VisibleCustomers filters the full member roster down to the customers
// the app lists: anyone holding savings or carrying loan history.
func VisibleCustomers(all []sheet.Record, contracts []contract.LoanContract) ([]customer.Customer, []customer.Customer) {
	withLoans := make(map[string]struct{}, len(contracts))
	for _, c := range contracts {
		id := strings.ToLower(strings.TrimSpace(c.CustomerID))
		if id != "" {
			withLoans[id] = struct{}{}
		}
	}

	full := make([]customer.Customer, 0, len(all))
	var visible []customer.Customer
	for _, rec := range all {
		if len(rec) == 0 {
			continue
		}
		cust := customer.Customer{
			ID:             sheet.String(rec, []string{"id_nasabah"}),
			NIK:            sheet.String(rec, []string{"nik"}),
			Nama:           sheet.String(rec, []string{"nama"}),
			NoHP:           sheet.String(rec, []string{"no_hp"}),
			Foto:           sheet.String(rec, []string{"foto"}),
			Latitude:       sheet.Number(rec, []string{"latitude"}),
			Longitude:      sheet.Number(rec, []string{"longitude"}),
			SavingsBalance: sheet.Number(rec, []string{"saldo_simpanan"}),
		}
		full = append(full, cust)

		id := strings.ToLower(strings.TrimSpace(cust.ID))
		_, hasLoan := withLoans[id]
		if cust.SavingsBalance > 0 || hasLoan {
			visible = append(visible, cust)
		}
	}
	return visible, full
}
