package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"koperasi-collection-backend/internal/adapter/sheets"
	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/internal/domain/submission"
	"koperasi-collection-backend/internal/usecase/dashboard"
)

// Gateway relays action envelopes to the spreadsheet script.
type Gateway interface {
	Do(ctx context.Context, action string, payload map[string]any) (*sheets.Response, error)
}

// ProxyHandler forwards the app's write operations to the gateway. The
// sheet is the system of record; these handlers validate, guard status
// transitions against the cached snapshot, and relay.
type ProxyHandler struct {
	gw   Gateway
	dash *dashboard.Usecase
}

func NewProxyHandler(gw Gateway, dash *dashboard.Usecase) *ProxyHandler {
	return &ProxyHandler{gw: gw, dash: dash}
}

func (h *ProxyHandler) relay(c echo.Context, action string, payload map[string]any) error {
	resp, err := h.gw.Do(c.Request().Context(), action, payload)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": resp.Success,
		"message": resp.Message,
		"data":    resp.Data,
	})
}

type loginReq struct {
	PetugasID string `json:"id_petugas" validate:"required"`
	PIN       string `json:"pin" validate:"required"`
}

func (h *ProxyHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionLogin, map[string]any{
		"id_petugas": req.PetugasID,
		"pin":        req.PIN,
	})
}

type paymentReq struct {
	LoanID     string  `json:"id_pinjaman" validate:"required"`
	CustomerID string  `json:"id_nasabah" validate:"required"`
	Amount     float64 `json:"jumlah" validate:"required,gt=0,intlike"`
	Petugas    string  `json:"petugas"`
	ProofPhoto string  `json:"foto_bukti"`
}

func (h *ProxyHandler) PayInstallment(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionPayInstallment, map[string]any{
		"id_pinjaman": req.LoanID,
		"id_nasabah":  req.CustomerID,
		"jumlah":      req.Amount,
		"petugas":     req.Petugas,
		"foto_bukti":  req.ProofPhoto,
	})
}

type loanRequestReq struct {
	CustomerID string  `json:"id_nasabah" validate:"required"`
	Amount     float64 `json:"jumlah" validate:"required,gt=0,intlike"`
	Tenor      int     `json:"tenor" validate:"required,gte=1,lte=52"`
	Petugas    string  `json:"petugas"`
}

func (h *ProxyHandler) SubmitLoanRequest(c echo.Context) error {
	var req loanRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionSubmitLoan, map[string]any{
		"id_nasabah": req.CustomerID,
		"jumlah":     req.Amount,
		"tenor":      req.Tenor,
		"petugas":    req.Petugas,
	})
}

// guardTransition rejects a status move the cached snapshot says is not
// the immediate next step. Nothing cached for the id means the sheet
// decides on its own.
func (h *ProxyHandler) guardTransition(c echo.Context, submissionID string, next submission.Status) error {
	role := petugas.ParseRole(c.QueryParam("role"))
	id := c.QueryParam("id_petugas")
	if id == "" || (!role.IsAdmin() && !role.IsKolektor()) {
		return nil
	}
	snap, ok := h.dash.Current(c.Request().Context(), role, id)
	if !ok {
		return nil
	}
	for _, s := range snap.Submissions {
		if s.ID != submissionID {
			continue
		}
		if !s.Status.CanAdvanceTo(next) {
			return echo.NewHTTPError(http.StatusConflict,
				"submission "+submissionID+" is "+string(s.Status)+", cannot move to "+string(next))
		}
		return nil
	}
	return nil
}

func (h *ProxyHandler) ApproveLoanRequest(c echo.Context) error {
	submissionID := c.Param("id")
	if err := h.guardTransition(c, submissionID, submission.StatusApproved); err != nil {
		return err
	}
	return h.relay(c, sheets.ActionApproveLoan, map[string]any{
		"id_pengajuan": submissionID,
	})
}

func (h *ProxyHandler) DisburseLoanRequest(c echo.Context) error {
	submissionID := c.Param("id")
	if err := h.guardTransition(c, submissionID, submission.StatusDisbursed); err != nil {
		return err
	}
	return h.relay(c, sheets.ActionDisburseLoan, map[string]any{
		"id_pengajuan": submissionID,
	})
}

type withdrawalReq struct {
	CustomerID string  `json:"id_nasabah" validate:"required"`
	Amount     float64 `json:"jumlah" validate:"required,gt=0,intlike"`
	Petugas    string  `json:"petugas"`
}

func (h *ProxyHandler) WithdrawSavings(c echo.Context) error {
	var req withdrawalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionWithdrawSavings, map[string]any{
		"id_nasabah": req.CustomerID,
		"jumlah":     req.Amount,
		"petugas":    req.Petugas,
	})
}

type registerCustomerReq struct {
	Nama string `json:"nama" validate:"required"`
	NIK  string `json:"nik" validate:"omitempty,len=16"`
	NoHP string `json:"no_hp"`
}

func (h *ProxyHandler) RegisterCustomer(c echo.Context) error {
	var req registerCustomerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionRegisterCustomer, map[string]any{
		"nama":  req.Nama,
		"nik":   req.NIK,
		"no_hp": req.NoHP,
	})
}

type transportClaimReq struct {
	Petugas string  `json:"petugas" validate:"required"`
	Amount  float64 `json:"jumlah" validate:"required,gt=0,intlike"`
}

func (h *ProxyHandler) ClaimTransport(c echo.Context) error {
	var req transportClaimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return h.relay(c, sheets.ActionClaimTransport, map[string]any{
		"petugas": req.Petugas,
		"jumlah":  req.Amount,
	})
}

func (h *ProxyHandler) MemberBalance(c echo.Context) error {
	customerID := c.Param("id")
	if customerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing customer id"})
	}
	return h.relay(c, sheets.ActionMemberBalance, map[string]any{
		"id_nasabah": customerID,
	})
}
