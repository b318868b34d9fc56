package ledger

import (
	"strconv"
	"time"
)

// Kind classifies a synthesized mutation. Rows coming through combined
// mutasi/history sheets can carry a free-form category the classifier
// does not recognize, so Kind is open-ended: the constants below are the
// canonical values, anything else passes through as-is (lower-cased) and
// only matters to the role filter.
type Kind string

const (
	KindInstallment       Kind = "installment"
	KindSavingsDeposit    Kind = "savings_deposit"
	KindSavingsWithdrawal Kind = "savings_withdrawal"
	KindExpense           Kind = "expense"
	KindIncome            Kind = "income"
	KindCapital           Kind = "capital"
	KindDisbursement      Kind = "disbursement"
	KindTransport         Kind = "transport"
)

// Mutation is one unified ledger line synthesized from a sheet row. It is
// ephemeral: the whole feed is recomputed on every refresh and never
// written back to the gateway.
type Mutation struct {
	Timestamp   time.Time `json:"tanggal"`
	RawDate     string    `json:"-"`
	Description string    `json:"keterangan"`
	Amount      float64   `json:"jumlah"`
	Petugas     string    `json:"petugas"`
	Kind        Kind      `json:"jenis"`
	CustomerRef string    `json:"id_nasabah,omitempty"`
	LoanRef     string    `json:"id_pinjam,omitempty"`
	Source      string    `json:"source,omitempty"`
	ProofPhoto  string    `json:"foto,omitempty"`
}

// DedupKey is the content-based uniqueness tuple: timestamp truncated to
// the second, final description, final amount. Backend-issued row ids are
// deliberately not part of the key, since the same logical event shows up
// under different synthetic ids across sheets.
func (m *Mutation) DedupKey() string {
	ts := m.RawDate
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05")
	}
	return ts + "|" + m.Description + "|" + strconv.FormatFloat(m.Amount, 'f', -1, 64)
}
