package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/employee"
	"hrcore/internal/platform/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type Handler struct {
	DB       *pgxpool.Pool
	Service  *employee.Service
	Secret   string
	TokenTTL time.Duration
}

func NewHandler(db *pgxpool.Pool, service *employee.Service, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{DB: db, Service: service, Secret: secret, TokenTTL: tokenTTL}
}

type loginRequest struct {
	PhoneNumber1 string `json:"phone_number1"`
	Password     string `json:"password"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ReNewPassword   string `json:"re_new_password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.Authenticate(r.Context(), payload.PhoneNumber1, payload.Password)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	sessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}
	sessionExpires := time.Now().Add(h.TokenTTL)
	if _, err := h.DB.Exec(r.Context(), `
    INSERT INTO sessions (employee_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, emp.ID, auth.HashToken(sessionID), sessionExpires); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{EmployeeID: emp.ID, IsStaff: emp.IsStaff, SessionID: sessionID}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"employee": map[string]any{
			"id":            emp.ID,
			"phone_number1": emp.PhoneNumber1,
			"first_name":    emp.FirstName,
			"rest_of_name":  emp.RestOfName,
			"is_staff":      emp.IsStaff,
		},
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		if _, err := h.DB.Exec(r.Context(), "UPDATE sessions SET revoked_at = now() WHERE employee_id = $1 AND refresh_token = $2", user.EmployeeID, auth.HashToken(user.SessionID)); err != nil {
			slog.Warn("logout session revoke failed", "employeeId", user.EmployeeID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if authHeader == "" || len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	claims, err := auth.ParseToken(h.Secret, parts[1])
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var count int
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1)
    FROM sessions
    WHERE employee_id = $1 AND refresh_token = $2 AND expires_at > now() AND revoked_at IS NULL
  `, claims.EmployeeID, auth.HashToken(claims.SessionID)).Scan(&count); err != nil || count == 0 {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestctx.GetRequestID(r.Context()))
		return
	}

	// Re-read the employee so a deactivation since login cuts the session off
	// at the next refresh.
	emp, err := h.Service.Get(r.Context(), claims.EmployeeID)
	if err != nil || !emp.IsActive {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestctx.GetRequestID(r.Context()))
		return
	}

	newSessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to rotate session", requestctx.GetRequestID(r.Context()))
		return
	}
	sessionExpires := time.Now().Add(h.TokenTTL)
	if _, err := h.DB.Exec(r.Context(), `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE employee_id = $3 AND refresh_token = $4
  `, auth.HashToken(newSessionID), sessionExpires, claims.EmployeeID, auth.HashToken(claims.SessionID)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		EmployeeID: emp.ID,
		IsStaff:    emp.IsStaff,
		SessionID:  newSessionID,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"token": token}, requestctx.GetRequestID(r.Context()))
}

// HandleSetPassword is the self-service password change; it always requires
// the caller's current password.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var payload setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("current_password", payload.CurrentPassword, "This field is required.")
	v.Required("new_password", payload.NewPassword, "This field is required.")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}
	if payload.NewPassword != payload.ReNewPassword {
		api.Fail(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.ChangeOwnPassword(r.Context(), user.EmployeeID, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, employee.ErrInvalidPassword) {
			shared.FailValidation(w, requestctx.GetRequestID(r.Context()), []shared.ValidationIssue{
				{Field: "current_password", Reason: "invalid password"},
			})
			return
		}
		api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"detail": "Password updated successfully."}, requestctx.GetRequestID(r.Context()))
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
