package contract

import "time"

// Status mirrors the values the loan roster sheets actually carry.
type Status string

const (
	StatusActive  Status = "Aktif"
	StatusSettled Status = "Lunas"
)

// LoanContract is a disbursed loan, normalized out of whatever column
// names the roster sheet used. Remaining = TotalPayable - cumulative paid
// and only ever decreases; the contract is settled exactly when Remaining
// reaches zero or below.
type LoanContract struct {
	LoanID       string    `json:"id_pinjaman"`
	DisbursedAt  time.Time `json:"tanggal"`
	CustomerID   string    `json:"id_nasabah"`
	Nama         string    `json:"nama"`
	Principal    float64   `json:"pokok"`
	InterestPct  float64   `json:"bunga_persen"`
	TotalPayable float64   `json:"total_hutang"`
	Tenor        int       `json:"tenor"`
	Installment  float64   `json:"cicilan"`
	Remaining    float64   `json:"sisa_hutang"`
	Status       Status    `json:"status"`
	Petugas      string    `json:"petugas"`
	UpdatedAt    time.Time `json:"update_terakhir"`
	ProofPhoto   string    `json:"foto_bukti"`
}

// CumulativePaid derives the amount collected so far from the contract
// invariant.
func (c *LoanContract) CumulativePaid() float64 {
	return c.TotalPayable - c.Remaining
}

func (c *LoanContract) Settled() bool {
	return c.Remaining <= 0 || c.Status == StatusSettled
}
