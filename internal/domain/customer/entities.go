package customer

// Customer is a cooperative member (nasabah). The engine never mutates
// customers; they are consumed for display-name resolution and the
// visibility filter.
type Customer struct {
	ID             string  `json:"id_nasabah"`
	NIK            string  `json:"nik"`
	Nama           string  `json:"nama"`
	NoHP           string  `json:"no_hp"`
	Foto           string  `json:"foto"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	SavingsBalance float64 `json:"saldo_simpanan"`
}
