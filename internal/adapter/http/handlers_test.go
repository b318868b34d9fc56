package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/internal/usecase/dashboard"
)

// snapshotGateway serves a fixed data bundle to the dashboard usecase.
type snapshotGateway struct {
	data map[string]any
}

func (g *snapshotGateway) GetDashboardData(ctx context.Context, role petugas.Role, userID string) (map[string]any, error) {
	return g.data, nil
}

func (g *snapshotGateway) GetData(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func seededDash(t *testing.T) *dashboard.Usecase {
	t.Helper()
	gw := &snapshotGateway{data: map[string]any{
		"penagihan_list": []any{map[string]any{
			"id_pinjaman":  "PJ-001",
			"id_nasabah":   "NS-001",
			"nama":         "Siti",
			"tanggal":      "2024-03-01",
			"total_hutang": 1200000.0,
			"cicilan":      60000.0,
			"sisa_hutang":  900000.0,
			"tenor":        20.0,
			"status":       "Aktif",
		}},
		"nasabah_list": []any{map[string]any{
			"id_nasabah":     "NS-001",
			"nama":           "Siti",
			"saldo_simpanan": 150000.0,
		}},
	}}
	dash := dashboard.NewUsecase(gw, nil)
	if _, err := dash.Refresh(context.Background(), petugas.RoleAdmin, "PT-01"); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	return dash
}

func setupReadEcho(dash *dashboard.Usecase) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	h := NewHandler(dash)
	e.GET("/dashboard", h.Dashboard)
	e.GET("/mutations", h.Mutations)
	e.GET("/loans", h.Loans)
	e.GET("/loans/:loan_id/tickets", h.LoanTickets)
	e.GET("/submissions", h.Submissions)
	e.GET("/customers", h.Customers)
	e.POST("/refresh", h.Refresh)
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_RequiresScope(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	if rec := get(e, "/dashboard"); rec.Code != http.StatusBadRequest {
		t.Fatalf("no scope => want 400, got %d", rec.Code)
	}
	if rec := get(e, "/dashboard?role=MANAGER&id_petugas=PT-01"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role => want 400, got %d", rec.Code)
	}
	if rec := get(e, "/dashboard?role=KOLEKTOR&id_petugas=PT-99"); rec.Code != http.StatusNotFound {
		t.Fatalf("unseeded scope => want 404, got %d", rec.Code)
	}
}

func TestDashboard_SummaryFields(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	rec := get(e, "/dashboard?role=admin&id_petugas=PT-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["jumlah_pinjaman"] != 1.0 || body["jumlah_nasabah"] != 1.0 {
		t.Fatalf("summary = %v", body)
	}
	if body["id_petugas"] != "PT-01" {
		t.Fatalf("scope echo = %v", body["id_petugas"])
	}
}

func TestLoans_ReturnsNormalizedContracts(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	rec := get(e, "/loans?role=ADMIN&id_petugas=PT-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var loans []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &loans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(loans) != 1 || loans[0]["id_pinjaman"] != "PJ-001" {
		t.Fatalf("loans = %v", loans)
	}
}

func TestLoanTickets_ExpandsSchedule(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	rec := get(e, "/loans/PJ-001/tickets?role=ADMIN&id_petugas=PT-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Tiket []map[string]any `json:"tiket"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tiket) != 20 {
		t.Fatalf("tickets = %d, want 20", len(body.Tiket))
	}

	if rec := get(e, "/loans/PJ-404/tickets?role=ADMIN&id_petugas=PT-01"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown loan => want 404, got %d", rec.Code)
	}
}

func TestCustomers_VisibleVersusAll(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	rec := get(e, "/customers?role=ADMIN&id_petugas=PT-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var visible []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &visible); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("visible = %d", len(visible))
	}
}

func TestRefresh_ValidatesBody(t *testing.T) {
	e := setupReadEcho(seededDash(t))

	rec := postJSON(t, e, "/refresh", map[string]any{"role": "ADMIN"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id_petugas => want 400, got %d", rec.Code)
	}

	rec = postJSON(t, e, "/refresh", map[string]any{"role": "ADMIN", "id_petugas": "PT-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh => want 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}
