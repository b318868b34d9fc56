// Package ledger turns the raw, loosely-typed sheets fetched from the
// gateway into the canonical mutation feed: one classified, deduplicated,
// chronologically ordered line per financial event.
package ledger

import (
	"regexp"
	"sort"
	"strings"
	"time"

	domain "koperasi-collection-backend/internal/domain/ledger"
	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/pkg/sheet"
)

// Candidate column names per concern, in priority order. These track what
// the ledger sheets have actually been observed to use.
var (
	datePatterns = []string{
		"tanggal", "tgl", "date", "time", "waktu", "timestamp", "created",
		"update", "input", "hari", "tanggal_transaksi", "tanggal_acc",
		"tanggal_cair",
	}
	amountPatterns = []string{
		"jumlah", "nominal", "bayar", "setor", "tarik", "pokok", "total",
		"masuk", "keluar", "biaya", "value", "amount", "bayaran", "setoran",
		"tagihan", "piutang", "saldo", "nominal_transaksi", "jumlah_bayar",
		"jumlah_pinjaman", "setoran_modal", "total_bayar",
	}
	customerIDPatterns = []string{
		"idnasabah", "nasabahid", "idmember", "memberid", "iduser", "userid",
		"idpelanggan", "norekening", "idpinjam", "penerima", "penyetor",
		"nama_nasabah",
	}
	loanIDPatterns  = []string{"id_pinjam", "id_pinjaman", "loan_id", "pinjaman_id", "id_pinj"}
	transIDPatterns = []string{"id", "no", "kode", "nik", "ref", "invoice", "transaksi"}
	namePatterns    = []string{"nama", "nasabah", "member", "customer", "user", "nama_nasabah", "penerima", "penyetor"}
	officerPatterns = []string{"petugas", "admin", "kolektor", "operator", "userinput", "staf"}
	photoPatterns   = []string{"foto", "bukti", "gambar", "image", "foto_bukti", "foto_bayar", "bukti_cair"}
	descPatterns    = []string{
		"keterangan", "deskripsi", "catatan", "memo", "info", "uraian", "ket",
		"keterangan_transaksi", "jenis_transaksi", "detail",
	}
	kindPatterns     = []string{"jenis", "tipe", "category", "status"}
	depositPatterns  = []string{"setor", "setoran", "masuk"}
	withdrawPatterns = []string{"tarik", "tarikan", "keluar", "wd"}
	statusPatterns   = []string{"status", "state"}
)

// Sheets a role may contribute mutations from. Expense and capital ledgers
// are admin-only.
var (
	adminSheets = []string{
		"angsuran", "pengeluaran", "pemasukan", "simpanan", "modal",
		"mutasi", "history", "record", "pinjaman", "loan", "pengajuan",
	}
	kolektorSheets = []string{
		"angsuran", "pemasukan", "simpanan",
		"mutasi", "history", "record", "pinjaman", "loan", "pengajuan",
	}
	// sheet-name signals that are never collector-visible
	restrictedSheetTokens = []string{"pengeluaran", "modal", "biaya", "investasi"}
)

var reDateShaped = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}[-/]\d{1,4}`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Amounts above this are assumed to be ids or concatenated garbage, not
// IDR transaction values.
const maxSaneAmount = 1_000_000_000

// DefaultOfficer labels rows that carry no acting-collector column.
const DefaultOfficer = "Petugas"

// Synthesizer accumulates mutations across one refresh pass. The pass may
// ingest more than one data pull (a collector's own view plus the
// admin-scoped supplement); dedup and the final ordering span all of them.
type Synthesizer struct {
	role  petugas.Role
	now   func() time.Time
	names map[string]string
	seen  map[string]struct{}
	out   []domain.Mutation
}

func NewSynthesizer(role petugas.Role) *Synthesizer {
	return &Synthesizer{
		role:  role,
		now:   time.Now,
		names: make(map[string]string),
		seen:  make(map[string]struct{}),
	}
}

// Ingest classifies every authorized sheet in one fetched data set. Safe
// to call repeatedly; first-seen wins on the dedup key.
func (s *Synthesizer) Ingest(data map[string][]sheet.Record) {
	s.indexNames(data)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	allowed := kolektorSheets
	if s.role.IsAdmin() {
		allowed = adminSheets
	}
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if containsAny(lowerKey, allowed...) {
			s.ingestSheet(key, data[key])
		}
	}
}

// Mutations returns the accumulated feed sorted by timestamp descending.
// Rows whose timestamps never parsed compare equal and keep their
// ingestion order.
func (s *Synthesizer) Mutations() []domain.Mutation {
	out := make([]domain.Mutation, len(s.out))
	copy(out, s.out)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Timestamp, out[j].Timestamp
		if a.IsZero() || b.IsZero() {
			return false
		}
		return a.After(b)
	})
	return out
}

// indexNames builds the borrower id -> display name lookup from the
// customer roster, when one is present.
func (s *Synthesizer) indexNames(data map[string][]sheet.Record) {
	for _, key := range []string{"nasabah", "NASABAH"} {
		for _, rec := range data[key] {
			id, _ := rec["id_nasabah"]
			if id == nil {
				id = rec["id"]
			}
			sid := strings.ToUpper(strings.TrimSpace(sheet.Stringify(id)))
			if sid == "" {
				continue
			}
			if nama := strings.TrimSpace(sheet.Stringify(rec["nama"])); nama != "" {
				s.names[sid] = nama
			}
		}
	}
}

func (s *Synthesizer) displayName(id, fallback string) string {
	if n, ok := s.names[strings.ToUpper(strings.TrimSpace(id))]; ok && n != "" {
		return n
	}
	if fallback != "" {
		return fallback
	}
	if id != "" {
		return id
	}
	return "Nasabah"
}

func (s *Synthesizer) ingestSheet(sourceKey string, list []sheet.Record) {
	sKey := strings.ToLower(sourceKey)
	if s.role.IsKolektor() && containsAny(sKey, restrictedSheetTokens...) {
		return
	}
	for _, rec := range list {
		s.ingestRecord(sKey, sourceKey, rec)
	}
}

func (s *Synthesizer) ingestRecord(sKey, sourceKey string, rec sheet.Record) {
	if len(rec) == 0 {
		return
	}

	// Combined mutasi/history sheets mix categories per row; a collector
	// must not see rows whose own source/type/description signal the
	// restricted ledgers.
	if s.role.IsKolektor() && containsAny(sKey, "mutasi", "history") {
		rowSrc := strings.ToLower(sheet.Stringify(rec["source"]))
		rowKind := strings.ToLower(sheet.String(rec, []string{"tipe", "jenis"}))
		rowDesc := strings.ToLower(sheet.String(rec, []string{"keterangan", "ket"}))
		for _, tok := range []string{"pengeluaran", "modal"} {
			if strings.Contains(rowSrc, tok) || strings.Contains(rowKind, tok) || strings.Contains(rowDesc, tok) {
				return
			}
		}
	}

	ts, rawDate := s.resolveTimestamp(rec)
	amount := resolveAmount(rec)
	// A zero amount drops the record unless the sheet kind is included
	// unconditionally.
	if amount == 0 && !containsAny(sKey, "mutasi", "pengeluaran", "pemasukan", "modal") {
		return
	}

	customerID := sheet.String(rec, customerIDPatterns)
	loanRef := sheet.String(rec, loanIDPatterns)
	transID := sheet.String(rec, transIDPatterns)
	name := sheet.String(rec, namePatterns)
	officer := sheet.String(rec, officerPatterns)
	if officer == "" {
		officer = DefaultOfficer
	}
	foto := sheet.String(rec, photoPatterns)

	ket := sheet.String(rec, descPatterns)
	if ket == "" {
		ket = firstNonEmpty(name, customerID, transID, "Transaksi")
	}
	jenis := strings.ToLower(sheet.String(rec, kindPatterns))
	display := s.displayName(customerID, name)

	kind, ket, amount, drop := classify(sKey, rec, jenis, ket, display, amount)
	if drop {
		return
	}

	// Defensive re-check on the finalized kind/description/source: the raw
	// sheet name may not have signaled restricted content even though the
	// resolved row does.
	if s.role.IsKolektor() {
		finalKind := strings.ToLower(string(kind))
		finalKet := strings.ToLower(ket)
		finalSrc := strings.ToLower(sourceKey)
		if kind == domain.KindExpense || kind == domain.KindCapital {
			return
		}
		for _, tok := range []string{"pengeluaran", "modal"} {
			if strings.Contains(finalKind, tok) || strings.Contains(finalKet, tok) || strings.Contains(finalSrc, tok) {
				return
			}
		}
	}

	m := domain.Mutation{
		Timestamp:   ts,
		RawDate:     rawDate,
		Description: ket,
		Amount:      amount,
		Petugas:     officer,
		Kind:        kind,
		CustomerRef: firstNonEmpty(customerID, name, transID),
		LoanRef:     loanRef,
		Source:      sourceKey,
		ProofPhoto:  foto,
	}
	key := m.DedupKey()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.out = append(s.out, m)
}

// resolveTimestamp tries the date-like columns, then scans every field for
// a date-shaped value, then defaults to now. A record is never skipped for
// a missing date.
func (s *Synthesizer) resolveTimestamp(rec sheet.Record) (time.Time, string) {
	raw, ok := sheet.FindValue(rec, datePatterns)
	if !ok || strings.TrimSpace(sheet.Stringify(raw)) == "" {
		raw = nil
		for _, k := range sheet.Keys(rec) {
			v := sheet.Stringify(rec[k])
			if reDateShaped.MatchString(v) || strings.Contains(v, "202") ||
				strings.Contains(v, "Feb") || strings.Contains(v, "Jan") {
				raw = rec[k]
				break
			}
		}
	}
	if raw == nil {
		now := s.now()
		return now, now.UTC().Format(time.RFC3339)
	}

	if t, isTime := raw.(time.Time); isTime {
		return t, t.UTC().Format(time.RFC3339)
	}
	str := strings.TrimSpace(sheet.Stringify(raw))
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t, str
		}
	}
	return time.Time{}, str
}

// resolveAmount reads the amount columns, then falls back to scanning for
// any plausible positive value when the result is zero or sits in the
// suspicious looks-like-a-year range.
func resolveAmount(rec sheet.Record) float64 {
	amount := sheet.Number(rec, amountPatterns)
	likelyYear := amount >= 2020 && amount <= 2035

	if amount == 0 || likelyYear {
		for _, k := range sheet.Keys(rec) {
			nk := strings.ToLower(k)
			if containsAny(nk, "id", "no", "nik", "tenor", "telp", "tgl", "date", "tahun", "year") {
				continue
			}
			val := sheet.CleanNumber(rec[k])
			if val > 0 && val < maxSaneAmount && (val < 2020 || val > 2035) {
				return val
			}
		}
	}
	return amount
}

// classify fixes the kind, display description and (for savings rows) the
// amount. First matching branch wins; drop reports records that must not
// appear in the feed at all.
func classify(sKey string, rec sheet.Record, jenis, ket, display string, amount float64) (domain.Kind, string, float64, bool) {
	switch {
	case containsAny(sKey, "angsuran", "bayar", "pay") || strings.Contains(jenis, "angsuran"):
		return domain.KindInstallment, "Angsuran: " + display, amount, false

	case (strings.Contains(sKey, "simpanan") || strings.Contains(jenis, "simpanan")) && !strings.Contains(sKey, "pengajuan"):
		setor := sheet.Number(rec, depositPatterns)
		tarik := sheet.Number(rec, withdrawPatterns)
		switch {
		case setor > 0:
			return domain.KindSavingsDeposit, "Simpanan (Setor): " + display, setor, false
		case tarik > 0:
			// same phrase as the expense-sheet withdrawal branch, so the
			// two duplicate paths dedup against each other
			return domain.KindSavingsWithdrawal, "Pencairan Simpanan: " + display, tarik, false
		case strings.Contains(strings.ToLower(ket), "tarik") || strings.Contains(jenis, "tarik"):
			return domain.KindSavingsWithdrawal, "Pencairan Simpanan: " + display, amount, false
		default:
			return domain.KindSavingsDeposit, "Simpanan: " + display, amount, false
		}

	case containsAny(sKey, "pengeluaran", "expense", "keluar"):
		desc := strings.ToLower(ket + " " + jenis)
		switch {
		case strings.Contains(jenis, "transport") || strings.Contains(desc, "transport"):
			return domain.KindTransport, ket, amount, false
		case strings.Contains(desc, "simpanan") && containsAny(desc, "cair", "tarik", "ambil", "keluar"):
			return domain.KindSavingsWithdrawal, "Pencairan Simpanan: " + display, amount, false
		default:
			return domain.KindExpense, ket, amount, false
		}

	case containsAny(sKey, "pemasukan", "income", "masuk"):
		return domain.KindIncome, ket, amount, false

	case strings.Contains(sKey, "modal"):
		return domain.KindCapital, ket, amount, false

	case containsAny(sKey, "jadwal_global", "pinjaman_aktif", "penagihan_list", "loan"):
		status := strings.ToLower(sheet.String(rec, statusPatterns))
		if status == "aktif" || status == "lunas" || status == "" {
			return domain.KindDisbursement, "Pencairan: " + display, amount, false
		}
		return "", "", 0, true

	case strings.Contains(sKey, "pengajuan"):
		// submissions are not mutations; they would duplicate the
		// contract-roster disbursement entries
		return "", "", 0, true

	default:
		return looseKind(jenis, ket), ket, amount, false
	}
}

// looseKind maps the free-form category of a combined-sheet row onto a
// canonical kind where a token is recognizable; otherwise the raw value
// passes through for the role filter to inspect.
func looseKind(jenis, ket string) domain.Kind {
	desc := strings.ToLower(ket)
	switch {
	case strings.Contains(jenis, "angsuran"):
		return domain.KindInstallment
	case strings.Contains(jenis, "transport"):
		return domain.KindTransport
	case strings.Contains(jenis, "penarikan") || strings.Contains(jenis, "tarik"),
		strings.Contains(desc, "simpanan") && containsAny(desc, "cair", "tarik"):
		return domain.KindSavingsWithdrawal
	case strings.Contains(jenis, "simpanan") || strings.Contains(jenis, "setor"):
		return domain.KindSavingsDeposit
	case strings.Contains(jenis, "pengeluaran") || strings.Contains(jenis, "biaya"):
		return domain.KindExpense
	case strings.Contains(jenis, "modal") || strings.Contains(jenis, "investasi"):
		return domain.KindCapital
	case strings.Contains(jenis, "pemasukan"):
		return domain.KindIncome
	case strings.Contains(jenis, "pencairan") || strings.Contains(jenis, "cair"):
		return domain.KindDisbursement
	default:
		return domain.Kind(jenis)
	}
}

func containsAny(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
