package employeeshandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/employee"
	"hrcore/internal/domain/reports"
	"hrcore/internal/platform/email"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type Handler struct {
	Service  *employee.Service
	Reports  *reports.Service
	Mailer   email.Mailer
	validate *validatorv10.Validate
}

func NewHandler(service *employee.Service, reportsService *reports.Service, mailer email.Mailer) *Handler {
	validate := validatorv10.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Service: service, Reports: reportsService, Mailer: mailer, validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/", h.handleList)
			r.Post("/", h.handleCreate)
			r.Get("/export.pdf", h.handleExportPDF)
			r.Route("/{employeeID}", func(r chi.Router) {
				r.Get("/", h.handleGet)
				r.Put("/", h.handleUpdate)
				r.Patch("/", h.handleUpdate)
				r.Delete("/", h.handleDeactivate)
				r.Post("/activate", h.handleActivate)
				r.Post("/set-password", h.handleResetPassword)
			})
		})
	})
}

type createRequest struct {
	PhoneNumber1   string `json:"phone_number1" validate:"required"`
	PhoneNumber2   string `json:"phone_number2"`
	Password       string `json:"password" validate:"required"`
	RePassword     string `json:"re_password" validate:"required"`
	FirstName      string `json:"first_name" validate:"required"`
	RestOfName     string `json:"rest_of_name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	DateJoined     string `json:"date_joined" validate:"required"`
	DOB            string `json:"dob"`
	Gender         string `json:"gender" validate:"omitempty,oneof=male female"`
	IdentityType   string `json:"identity_type" validate:"required,oneof=nid passport driving_license other"`
	IdentityNumber string `json:"identity_number" validate:"required"`
	Address        string `json:"address"`
	Location       string `json:"location" validate:"omitempty,url"`
	ProfilePicture string `json:"profile_picture" validate:"omitempty,url"`
	Role           string `json:"role"`
	FingerprintID  string `json:"fingerprint_id"`
	IsStaff        bool   `json:"is_staff"`
	IsVerified     bool   `json:"is_verified"`
}

type updateRequest struct {
	PhoneNumber1   *string `json:"phone_number1"`
	PhoneNumber2   *string `json:"phone_number2"`
	FirstName      *string `json:"first_name"`
	RestOfName     *string `json:"rest_of_name"`
	Email          *string `json:"email" validate:"omitempty,email"`
	DateJoined     *string `json:"date_joined"`
	DOB            *string `json:"dob"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=male female"`
	IdentityType   *string `json:"identity_type" validate:"omitempty,oneof=nid passport driving_license other"`
	IdentityNumber *string `json:"identity_number"`
	Address        *string `json:"address"`
	Location       *string `json:"location" validate:"omitempty,url"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url"`
	Role           *string `json:"role"`
	FingerprintID  *string `json:"fingerprint_id"`
	IsActive       *bool   `json:"is_active"`
	IsStaff        *bool   `json:"is_staff"`
	IsSuperuser    *bool   `json:"is_superuser"`
	IsVerified     *bool   `json:"is_verified"`
}

type resetPasswordRequest struct {
	NewPassword   string `json:"new_password"`
	ReNewPassword string `json:"re_new_password"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.Get(r.Context(), user.EmployeeID)
	if err != nil {
		// A token for a row that no longer exists is just a stale credential;
		// anything else is a storage failure.
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_read_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	items, err := h.Service.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.CollectStruct(h.validate.Struct(payload))

	if payload.PhoneNumber1 != "" && !employee.ValidPhoneNumber(payload.PhoneNumber1) {
		v.Add("phone_number1", "must be an Egyptian number starting with +20")
	}
	if payload.PhoneNumber2 != "" && !employee.ValidPhoneNumber(payload.PhoneNumber2) {
		v.Add("phone_number2", "must be an Egyptian number starting with +20")
	}

	emp := employee.Employee{
		PhoneNumber1:   payload.PhoneNumber1,
		PhoneNumber2:   payload.PhoneNumber2,
		FirstName:      payload.FirstName,
		RestOfName:     payload.RestOfName,
		Gender:         employee.Gender(payload.Gender),
		IdentityType:   employee.IdentityType(payload.IdentityType),
		IdentityNumber: payload.IdentityNumber,
		Address:        payload.Address,
		Location:       payload.Location,
		ProfilePicture: payload.ProfilePicture,
		Role:           payload.Role,
		FingerprintID:  payload.FingerprintID,
		IsActive:       true,
		IsStaff:        payload.IsStaff,
		IsVerified:     payload.IsVerified,
	}
	if payload.Email != "" {
		emailValue := payload.Email
		emp.Email = &emailValue
	}
	if payload.DateJoined != "" {
		if parsed, ok := v.Date("date_joined", payload.DateJoined); ok {
			emp.DateJoined = parsed
		}
	}
	if payload.DOB != "" {
		if parsed, ok := v.Date("dob", payload.DOB); ok {
			emp.DOB = &parsed
		}
	}

	if emp.IdentityType == employee.IdentityNID && payload.IdentityNumber != "" {
		if err := employee.ApplyIdentity(&emp); err != nil {
			v.Add("identity_number", err.Error())
		}
	}

	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.Password != payload.RePassword {
		api.Fail(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	emp.PasswordHash = hash

	if err := h.Service.Create(r.Context(), &emp); err != nil {
		var conflict *employee.ConflictError
		if errors.As(err, &conflict) {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
				{Field: conflict.Field, Reason: "already exists"},
			})
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}

	if emp.Email != nil {
		go h.sendWelcome(*emp.Email, emp.FirstName)
	}

	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_read_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.CollectStruct(h.validate.Struct(payload))

	if payload.PhoneNumber1 != nil && !employee.ValidPhoneNumber(*payload.PhoneNumber1) {
		v.Add("phone_number1", "must be an Egyptian number starting with +20")
	}
	if payload.PhoneNumber2 != nil && *payload.PhoneNumber2 != "" && !employee.ValidPhoneNumber(*payload.PhoneNumber2) {
		v.Add("phone_number2", "must be an Egyptian number starting with +20")
	}
	if payload.FirstName != nil {
		v.Required("first_name", *payload.FirstName, "This field is required.")
	}
	if payload.RestOfName != nil {
		v.Required("rest_of_name", *payload.RestOfName, "This field is required.")
	}
	if payload.IdentityNumber != nil {
		v.Required("identity_number", *payload.IdentityNumber, "This field is required.")
	}

	var dateJoined time.Time
	if payload.DateJoined != nil {
		if parsed, ok := v.Date("date_joined", *payload.DateJoined); ok {
			dateJoined = parsed
		}
	}
	var dob *time.Time
	if payload.DOB != nil && *payload.DOB != "" {
		if parsed, ok := v.Date("dob", *payload.DOB); ok {
			dob = &parsed
		}
	}

	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	// The merge runs inside the store's row lock so two concurrent partial
	// updates cannot read the same snapshot and drop each other's fields.
	updated, err := h.Service.Update(r.Context(), id, func(emp *employee.Employee) error {
		if payload.PhoneNumber1 != nil {
			emp.PhoneNumber1 = *payload.PhoneNumber1
		}
		if payload.PhoneNumber2 != nil {
			emp.PhoneNumber2 = *payload.PhoneNumber2
		}
		if payload.FirstName != nil {
			emp.FirstName = *payload.FirstName
		}
		if payload.RestOfName != nil {
			emp.RestOfName = *payload.RestOfName
		}
		if payload.Email != nil {
			if *payload.Email == "" {
				emp.Email = nil
			} else {
				emailValue := *payload.Email
				emp.Email = &emailValue
			}
		}
		if payload.DateJoined != nil {
			emp.DateJoined = dateJoined
		}
		if payload.DOB != nil {
			emp.DOB = dob
		}
		if payload.Gender != nil {
			emp.Gender = employee.Gender(*payload.Gender)
		}

		becameNID := false
		numberChanged := false
		if payload.IdentityType != nil {
			newType := employee.IdentityType(*payload.IdentityType)
			becameNID = newType == employee.IdentityNID && emp.IdentityType != employee.IdentityNID
			emp.IdentityType = newType
		}
		if payload.IdentityNumber != nil && *payload.IdentityNumber != emp.IdentityNumber {
			numberChanged = true
			emp.IdentityNumber = *payload.IdentityNumber
		}

		if payload.Address != nil {
			emp.Address = *payload.Address
		}
		if payload.Location != nil {
			emp.Location = *payload.Location
		}
		if payload.ProfilePicture != nil {
			emp.ProfilePicture = *payload.ProfilePicture
		}
		if payload.Role != nil {
			emp.Role = *payload.Role
		}
		if payload.FingerprintID != nil {
			emp.FingerprintID = *payload.FingerprintID
		}
		if payload.IsActive != nil {
			emp.IsActive = *payload.IsActive
		}
		if payload.IsStaff != nil {
			emp.IsStaff = *payload.IsStaff
		}
		if payload.IsSuperuser != nil {
			emp.IsSuperuser = *payload.IsSuperuser
		}
		if payload.IsVerified != nil {
			emp.IsVerified = *payload.IsVerified
		}

		// Re-derive dob and gender only when the identity document actually
		// changed into or within the national-ID type; an update that omits
		// identity fields never touches the derived values.
		if emp.IdentityType == employee.IdentityNID && (becameNID || numberChanged) {
			return employee.ApplyIdentity(emp)
		}
		return nil
	})
	if err != nil {
		var conflict *employee.ConflictError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
		case errors.As(err, &conflict):
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
				{Field: conflict.Field, Reason: "already exists"},
			})
		case employee.IsNIDError(err):
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
				{Field: "identity_number", Reason: err.Error()},
			})
		default:
			api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		}
		return
	}

	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	found, err := h.Service.Deactivate(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_deactivate_failed", "failed to deactivate employee", middleware.GetRequestID(r.Context()))
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"detail": "Employee deactivated successfully."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	found, err := h.Service.Activate(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_activate_failed", "failed to activate employee", middleware.GetRequestID(r.Context()))
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"detail": "Employee activated successfully."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("new_password", payload.NewPassword, "This field is required.")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.NewPassword != payload.ReNewPassword {
		api.Fail(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.", middleware.GetRequestID(r.Context()))
		return
	}

	found, err := h.Service.ResetPassword(r.Context(), id, payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "password_reset_failed", "failed to reset password", middleware.GetRequestID(r.Context()))
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"detail": "Password updated successfully."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := h.Reports.RosterPDF(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export roster", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="employee-roster.pdf"`)
	if _, err := w.Write(pdfBytes); err != nil {
		slog.Warn("roster pdf write failed", "err", err)
	}
}

// employeeID rejects malformed IDs up front so the store only ever sees
// well-formed UUIDs; anything else is indistinguishable from an unknown
// employee.
func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "employeeID")
	parsed, err := uuid.Parse(raw)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "Employee not found.", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return parsed.String(), true
}

// sendWelcome runs off the request goroutine; delivery failure only warns.
func (h *Handler) sendWelcome(to, firstName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	body := fmt.Sprintf("Hi %s,\n\nYour employee account has been created. You can now sign in with your registered phone number.\n", firstName)
	if err := h.Mailer.Send(ctx, to, "Welcome", body); err != nil {
		slog.Warn("welcome email failed", "to", to, "err", err)
	}
}
