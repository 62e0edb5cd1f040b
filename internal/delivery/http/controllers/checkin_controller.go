package controllers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// CheckInRequest is the request body for POST .../check-in. QRData is the
// decoded QR payload, either as an object or as the raw JSON string read from
// the code.
type CheckInRequest struct {
	QRData json.RawMessage `json:"qrData" swaggertype:"object"`
}

// Validate implements Validator.
func (c CheckInRequest) Validate() []string {
	if len(bytes.TrimSpace(c.QRData)) == 0 || string(c.QRData) == "null" {
		return []string{"qrData is required"}
	}
	return nil
}

// scanned decodes QRData. Unknown credential keys are ignored.
func (c CheckInRequest) scanned() (domain.ScannedCredential, bool) {
	raw := c.QRData
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = json.RawMessage(text)
	}
	var sc domain.ScannedCredential
	if err := json.Unmarshal(raw, &sc); err != nil {
		return domain.ScannedCredential{}, false
	}
	sc.Raw = raw
	return sc, true
}

// CheckInSuccessResponse is the success response envelope for POST .../check-in (200).
type CheckInSuccessResponse struct {
	Data  *domain.CheckInResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListCheckInsResponse is the body for GET .../check-ins.
type ListCheckInsResponse struct {
	Items      []*domain.CheckInRecord `json:"items"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// ListCheckInsSuccessResponse is the success response envelope for GET .../check-ins (200).
type ListCheckInsSuccessResponse struct {
	Data  ListCheckInsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckIn godoc
// @Summary Check in a scanned ticket
// @Description Admits the participant once. Repeated or concurrent scans of the same ticket return alreadyCheckedIn with the original time. An unknown participant yields valid=false with a reason, not an error. Community admins and members may scan.
// @Tags check-in
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param scan body CheckInRequest true "Scanned QR payload"
// @Success 200 {object} controllers.CheckInSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (malformed id or credential)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event or form)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/check-in [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	scanned, ok := req.scanned()
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "qrData is not a valid credential")
		return
	}
	result, err := c.Service.CheckIn(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), scanned, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListCheckIns godoc
// @Summary List check-ins of a form
// @Description Paginated, newest first. Community admins and members may list.
// @Tags check-in
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListCheckInsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/check-ins [get]
func (c *CheckInController) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	recs, total, err := c.Service.ListCheckIns(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListCheckInsResponse{
		Items:      recs,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
