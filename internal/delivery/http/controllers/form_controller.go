package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// FormRequest is the request body for creating or replacing a form.
type FormRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Fields      []domain.FormField    `json:"fields"`
	Ticket      domain.TicketSettings `json:"ticket"`
}

// Validate implements Validator.
func (f FormRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, "title is required")
	}
	return errs
}

func (f FormRequest) toInput() domain.FormInput {
	return domain.FormInput{
		Title:       f.Title,
		Description: f.Description,
		Fields:      f.Fields,
		Ticket:      f.Ticket,
	}
}

// FormSuccessResponse is the success response envelope for form endpoints.
type FormSuccessResponse struct {
	Data  *domain.Form      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type FormController struct {
	Logger  *slog.Logger
	Service domain.FormService
}

func NewFormController(logger *slog.Logger, svc domain.FormService) *FormController {
	return &FormController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateForm godoc
// @Summary Create a registration form
// @Description Creates a form for the event. Field definitions are checked and normalized once here. Only community admins may create forms.
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param form body FormRequest true "Form definition"
// @Success 201 {object} controllers.FormSuccessResponse "data contains the created form"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms [post]
func (c *FormController) CreateForm(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	var req FormRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	form, err := c.Service.CreateForm(r.Context(), eventID, userID, req.toInput())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, form)
}

// UpdateForm godoc
// @Summary Replace a registration form
// @Description Replaces title, description, fields and ticket settings. Existing responses are kept as stored. Only community admins may edit forms.
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Param form body FormRequest true "Form definition"
// @Success 200 {object} controllers.FormSuccessResponse "data contains the updated form"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID} [put]
func (c *FormController) UpdateForm(w http.ResponseWriter, r *http.Request) {
	eventID, formID := r.PathValue("eventID"), r.PathValue("formID")
	var req FormRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	form, err := c.Service.UpdateForm(r.Context(), eventID, formID, userID, req.toInput())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, form)
}

// GetForm godoc
// @Summary Get a registration form
// @Description Returns the form shape so participants can fill it in. No authentication required.
// @Tags forms
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param formID path string true "Form ID (UUID)"
// @Success 200 {object} controllers.FormSuccessResponse "data contains the form"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/forms/{formID} [get]
func (c *FormController) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := c.Service.GetForm(r.Context(), r.PathValue("eventID"), r.PathValue("formID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, form)
}
