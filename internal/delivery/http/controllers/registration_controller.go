package controllers

import (
	"log/slog"
	"net/http"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// RegisterRequest is the request body for submitting a form. Name and email are
// optional; when omitted they are taken from the form's own fields.
type RegisterRequest struct {
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Values map[string]any `json:"values"`
}

// RegisterResponse is the body returned for an accepted registration.
type RegisterResponse struct {
	ResponseID string `json:"responseId"`
}

// RegisterSuccessResponse is the success response envelope for POST .../responses (201).
type RegisterSuccessResponse struct {
	Data  RegisterResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListResponsesResponse is the body for GET .../responses.
type ListResponsesResponse struct {
	Items      []*domain.Response     `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListResponsesSuccessResponse is the success response envelope for GET .../responses (200).
type ListResponsesSuccessResponse struct {
	Data  ListResponsesResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ResendAllResponse reports a bulk ticket resend.
type ResendAllResponse struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Submit a registration
// @Description Validates the submission against the form and stores it. The ticket email is sent afterwards; a failed send does not fail the registration. Authentication is optional.
// @Tags responses
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param submission body RegisterRequest true "Submitted values keyed by field id"
// @Success 201 {object} controllers.RegisterSuccessResponse "data.responseId is the new response"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized (invalid token)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: validation_failed, error.details is the ValidationError"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/responses [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	resp, err := c.Service.Register(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), userID, domain.Submission{
		Name:   req.Name,
		Email:  req.Email,
		Values: req.Values,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegisterResponse{ResponseID: resp.ID})
}

// ListResponses godoc
// @Summary List responses of a form
// @Description Paginated, newest first. Only community admins may list responses.
// @Tags responses
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListResponsesSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/responses [get]
func (c *RegistrationController) ListResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	resps, total, err := c.Service.ListResponses(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListResponsesResponse{
		Items:      resps,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ResendTicket godoc
// @Summary Resend a ticket
// @Description Sends the ticket of one response again. The participant id stays the same, so earlier QR codes keep working.
// @Tags responses
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param responseID path string true "Response ID (UUID)"
// @Success 202 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/responses/{responseID}/ticket [post]
func (c *RegistrationController) ResendTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	err := c.Service.ResendTicket(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), r.PathValue("responseID"), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, map[string]bool{"sent": true})
}

// ResendAllTickets godoc
// @Summary Resend every ticket of a form
// @Description Sends the ticket of every response again and reports the response ids that failed.
// @Tags responses
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Success 202 {object} controllers.ResendAllResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID}/tickets [post]
func (c *RegistrationController) ResendAllTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	sent, failed, err := c.Service.ResendAllTickets(r.Context(), r.PathValue("eventID"), r.PathValue("formID"), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, ResendAllResponse{Sent: sent, Failed: failed})
}
