package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/internal/usecase/dashboard"
	"koperasi-collection-backend/internal/usecase/installment"
	"koperasi-collection-backend/pkg/schedule"
)

type Handler struct {
	dash *dashboard.Usecase
}

func NewHandler(dash *dashboard.Usecase) *Handler { return &Handler{dash: dash} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// scope pulls the officer identity every read endpoint is keyed on.
func scope(c echo.Context) (petugas.Role, string, error) {
	role := petugas.ParseRole(c.QueryParam("role"))
	if !role.IsAdmin() && !role.IsKolektor() {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	id := c.QueryParam("id_petugas")
	if id == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing id_petugas")
	}
	return role, id, nil
}

func (h *Handler) snapshot(c echo.Context) (*dashboard.Snapshot, error) {
	role, id, err := scope(c)
	if err != nil {
		return nil, err
	}
	snap, ok := h.dash.Current(c.Request().Context(), role, id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no snapshot for scope, refresh first")
	}
	return snap, nil
}

type refreshReq struct {
	Role      string `json:"role" validate:"required"`
	PetugasID string `json:"id_petugas" validate:"required"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	role := petugas.ParseRole(req.Role)
	if !role.IsAdmin() && !role.IsKolektor() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown role"})
	}
	snap, err := h.dash.Refresh(c.Request().Context(), role, req.PetugasID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, snap)
}

// Dashboard serves the summary view: queue, target and counts, without
// the full mutation feed.
func (h *Handler) Dashboard(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"role":            snap.Role,
		"id_petugas":      snap.PetugasID,
		"fetched_at":      snap.FetchedAt,
		"target_harian":   snap.DailyTarget,
		"antrian_tagihan": snap.Queue,
		"jumlah_pinjaman": len(snap.Contracts),
		"jumlah_mutasi":   len(snap.Mutations),
		"jumlah_nasabah":  len(snap.Customers),
		"notifikasi":      snap.Notifications,
	})
}

func (h *Handler) Mutations(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Mutations)
}

func (h *Handler) Loans(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Contracts)
}

// LoanTickets expands one contract into its per-installment view.
func (h *Handler) LoanTickets(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	loanID := c.Param("loan_id")
	for i := range snap.Contracts {
		if snap.Contracts[i].LoanID == loanID {
			tickets := installment.Tickets(&snap.Contracts[i], schedule.Today())
			return c.JSON(http.StatusOK, map[string]any{
				"pinjaman": snap.Contracts[i],
				"tiket":    tickets,
			})
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "loan not found"})
}

func (h *Handler) Submissions(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Submissions)
}

func (h *Handler) Customers(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	if c.QueryParam("semua") == "true" {
		return c.JSON(http.StatusOK, snap.AllCustomers)
	}
	return c.JSON(http.StatusOK, snap.Customers)
}
