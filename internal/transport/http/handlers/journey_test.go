package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"hrcore/internal/app/server"
	"hrcore/internal/platform/config"
)

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		Environment:        "test",
		DatabaseURL:        dbURL,
		MigrationsDir:      "../../../../migrations",
		RunMigrations:      true,
		RunSeed:            true,
		JWTSecret:          "test-secret",
		TokenTTLSeconds:    3600,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 10000,
		MetricsEnabled:     true,
	}
	cfg.Seed.AdminPhone = "+201000000000"
	cfg.Seed.AdminPassword = "ChangeMe123!"
	cfg.Seed.AdminFirstName = "System"
	cfg.Seed.AdminRestOfName = "Administrator"
	cfg.Seed.AdminIdentityNumber = "ADMIN-0001"
	return cfg
}

func TestAdminEmployeeLifecycleJourney(t *testing.T) {
	cfg := testConfig(t)

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.Seed.AdminPhone, cfg.Seed.AdminPassword)

	phone := uniquePhone()
	nid := uniqueNID(true)
	created := createEmployee(t, client, ts.URL, adminToken, map[string]any{
		"phone_number1":   phone,
		"password":        "S3cretPass!",
		"re_password":     "S3cretPass!",
		"first_name":      "Ahmed",
		"rest_of_name":    "Mahmoud Hassan",
		"date_joined":     "2024-01-15",
		"identity_type":   "nid",
		"identity_number": nid,
		"gender":          "female",
	})

	employeeID, _ := created["id"].(string)
	if employeeID == "" {
		t.Fatalf("expected created employee id, got %+v", created)
	}
	if dob, _ := created["dob"].(string); len(dob) < 10 || dob[:10] != "1995-03-15" {
		t.Fatalf("expected derived dob 1995-03-15, got %v", created["dob"])
	}
	if created["gender"] != "male" {
		t.Fatalf("expected derived gender to override supplied value, got %v", created["gender"])
	}

	// Duplicate phone loses with a field-scoped error, same as a pre-check.
	status, _, errPayload := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/employees/", adminToken, map[string]any{
		"phone_number1":   phone,
		"password":        "S3cretPass!",
		"re_password":     "S3cretPass!",
		"first_name":      "Other",
		"rest_of_name":    "Person",
		"date_joined":     "2024-01-15",
		"identity_type":   "nid",
		"identity_number": uniqueNID(true),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected duplicate create to fail with 400, got %d", status)
	}
	if errPayload == nil || !fieldIssuePresent(errPayload.Details, "phone_number1") {
		t.Fatalf("expected phone_number1 issue, got %+v", errPayload)
	}

	empToken := login(t, client, ts.URL, phone, "S3cretPass!")
	me := getData(t, client, ts.URL+"/api/v1/employees/me", empToken)
	if me["id"] != employeeID {
		t.Fatalf("expected me to return own record, got %v", me["id"])
	}

	// Partial update without identity fields keeps the derived values.
	updated := patchEmployee(t, client, ts.URL, adminToken, employeeID, map[string]any{"role": "Supervisor"})
	if dob, _ := updated["dob"].(string); len(dob) < 10 || dob[:10] != "1995-03-15" {
		t.Fatalf("expected dob preserved on partial update, got %v", updated["dob"])
	}
	if updated["role"] != "Supervisor" {
		t.Fatalf("expected role update, got %v", updated["role"])
	}

	// Changing the national ID re-derives gender.
	updated = patchEmployee(t, client, ts.URL, adminToken, employeeID, map[string]any{"identity_number": uniqueNID(false)})
	if updated["gender"] != "female" {
		t.Fatalf("expected re-derived gender female, got %v", updated["gender"])
	}

	// Soft delete is idempotent and reversible.
	for i := 0; i < 2; i++ {
		status, data, _ := doJSON(t, client, http.MethodDelete, ts.URL+"/api/v1/employees/"+employeeID+"/", adminToken, nil)
		if status != http.StatusOK {
			t.Fatalf("expected deactivate attempt %d to return 200, got %d", i+1, status)
		}
		var detail map[string]string
		if err := json.Unmarshal(data, &detail); err != nil || detail["detail"] != "Employee deactivated successfully." {
			t.Fatalf("unexpected deactivate body: %s", data)
		}
	}
	if status, _, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]any{
		"phone_number1": phone,
		"password":      "S3cretPass!",
	}); status != http.StatusUnauthorized {
		t.Fatalf("expected login of deactivated employee to fail, got %d", status)
	}

	if status, _, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/employees/"+employeeID+"/activate", adminToken, nil); status != http.StatusOK {
		t.Fatalf("expected activate to return 200, got %d", status)
	}
	empToken = login(t, client, ts.URL, phone, "S3cretPass!")

	// Admin reset, then a self change that must prove the current password.
	if status, _, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/employees/"+employeeID+"/set-password", adminToken, map[string]any{
		"new_password":    "ResetPass123!",
		"re_new_password": "ResetPass123!",
	}); status != http.StatusOK {
		t.Fatalf("expected admin password reset to return 200, got %d", status)
	}
	empToken = login(t, client, ts.URL, phone, "ResetPass123!")

	status, _, errPayload = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/auth/users/set_password", empToken, map[string]any{
		"current_password": "wrong-password",
		"new_password":     "FinalPass123!",
		"re_new_password":  "FinalPass123!",
	})
	if status != http.StatusBadRequest || errPayload == nil || !fieldIssuePresent(errPayload.Details, "current_password") {
		t.Fatalf("expected current_password issue, got %d %+v", status, errPayload)
	}
	// Password unchanged after the failed attempt.
	login(t, client, ts.URL, phone, "ResetPass123!")

	if status, _, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/auth/users/set_password", empToken, map[string]any{
		"current_password": "ResetPass123!",
		"new_password":     "FinalPass123!",
		"re_new_password":  "FinalPass123!",
	}); status != http.StatusOK {
		t.Fatalf("expected self password change to return 200, got %d", status)
	}
	empToken = login(t, client, ts.URL, phone, "FinalPass123!")

	// Non-staff callers are shut out of the admin surface.
	if status, _, _ := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/employees/", empToken, nil); status != http.StatusForbidden {
		t.Fatalf("expected non-staff list to be forbidden, got %d", status)
	}

	// Roster export is plain PDF bytes.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/employees/export.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected pdf export, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	// A still-valid token whose account row is gone is a stale credential,
	// not a server error.
	if _, err := app.DB.Exec(context.Background(), "DELETE FROM employees WHERE id = $1", employeeID); err != nil {
		t.Fatalf("row delete failed: %v", err)
	}
	if status, _, _ := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/employees/me", empToken, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted account, got %d", status)
	}
}

func TestConcurrentPartialUpdatesKeepBothFields(t *testing.T) {
	cfg := testConfig(t)

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.Seed.AdminPhone, cfg.Seed.AdminPassword)
	created := createEmployee(t, client, ts.URL, adminToken, map[string]any{
		"phone_number1":   uniquePhone(),
		"password":        "S3cretPass!",
		"re_password":     "S3cretPass!",
		"first_name":      "Mona",
		"rest_of_name":    "Adel Fahmy",
		"date_joined":     "2024-01-15",
		"identity_type":   "passport",
		"identity_number": fmt.Sprintf("P-%d", time.Now().UnixNano()),
	})
	employeeID, _ := created["id"].(string)
	if employeeID == "" {
		t.Fatalf("expected created employee id, got %+v", created)
	}

	// Each request patches a different field; with the row lock in place
	// neither write may erase the other's change.
	patches := []map[string]any{
		{"role": "Supervisor"},
		{"address": "12 Nile Corniche, Cairo"},
	}
	patchErrs := make([]error, len(patches))
	var wg sync.WaitGroup
	for i, patch := range patches {
		wg.Add(1)
		go func(i int, patch map[string]any) {
			defer wg.Done()
			status, _, _, err := tryJSON(client, http.MethodPatch, ts.URL+"/api/v1/employees/"+employeeID+"/", adminToken, patch)
			if err == nil && status != http.StatusOK {
				err = fmt.Errorf("unexpected status %d", status)
			}
			patchErrs[i] = err
		}(i, patch)
	}
	wg.Wait()

	for i, err := range patchErrs {
		if err != nil {
			t.Fatalf("patch %d: %v", i, err)
		}
	}

	final := getData(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/", adminToken)
	if final["role"] != "Supervisor" || final["address"] != "12 Nile Corniche, Cairo" {
		t.Fatalf("expected both concurrent updates preserved, got role=%v address=%v", final["role"], final["address"])
	}
}

func TestConcurrentCreateSamePhoneNumber(t *testing.T) {
	cfg := testConfig(t)

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.Seed.AdminPhone, cfg.Seed.AdminPassword)
	phone := uniquePhone()

	statuses := make([]int, 2)
	requestErrs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _, _, err := tryJSON(client, http.MethodPost, ts.URL+"/api/v1/employees/", adminToken, map[string]any{
				"phone_number1":   phone,
				"password":        "S3cretPass!",
				"re_password":     "S3cretPass!",
				"first_name":      "Race",
				"rest_of_name":    fmt.Sprintf("Runner %d", i),
				"date_joined":     "2024-01-15",
				"identity_type":   "passport",
				"identity_number": fmt.Sprintf("P%d-%d", i, time.Now().UnixNano()),
			})
			statuses[i], requestErrs[i] = status, err
		}(i)
	}
	wg.Wait()

	for i, err := range requestErrs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	created := 0
	rejected := 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}
	if created != 1 || rejected != 1 {
		t.Fatalf("expected exactly one create to win, got statuses %v", statuses)
	}
}

func login(t *testing.T, client *http.Client, baseURL, phone, password string) string {
	t.Helper()
	status, data, errPayload := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]any{
		"phone_number1": phone,
		"password":      password,
	})
	if status != http.StatusOK {
		t.Fatalf("login failed for %s: %d %+v", phone, status, errPayload)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		t.Fatalf("expected login token, got %s", data)
	}
	return payload.Token
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token string, body map[string]any) map[string]any {
	t.Helper()
	status, data, errPayload := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/employees/", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create employee failed: %d %+v", status, errPayload)
	}
	var emp map[string]any
	if err := json.Unmarshal(data, &emp); err != nil {
		t.Fatalf("decode created employee: %v", err)
	}
	return emp
}

func patchEmployee(t *testing.T, client *http.Client, baseURL, token, id string, body map[string]any) map[string]any {
	t.Helper()
	status, data, errPayload := doJSON(t, client, http.MethodPatch, baseURL+"/api/v1/employees/"+id+"/", token, body)
	if status != http.StatusOK {
		t.Fatalf("patch employee failed: %d %+v", status, errPayload)
	}
	var emp map[string]any
	if err := json.Unmarshal(data, &emp); err != nil {
		t.Fatalf("decode patched employee: %v", err)
	}
	return emp
}

func getData(t *testing.T, client *http.Client, url, token string) map[string]any {
	t.Helper()
	status, data, errPayload := doJSON(t, client, http.MethodGet, url, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get %s failed: %d %+v", url, status, errPayload)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return out
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (int, json.RawMessage, *apiError) {
	t.Helper()
	status, data, errPayload, err := tryJSON(client, method, url, token, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return status, data, errPayload
}

// tryJSON is the goroutine-safe request helper: it reports failures as an
// error instead of ending the test, so concurrent callers can collect them.
func tryJSON(client *http.Client, method, url, token string, body any) (int, json.RawMessage, *apiError, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, nil, nil, fmt.Errorf("decode envelope: %w", err)
	}
	return resp.StatusCode, env.Data, env.Error, nil
}

func fieldIssuePresent(details map[string]any, field string) bool {
	if details == nil {
		return false
	}
	fields, ok := details["fields"].([]any)
	if !ok {
		return false
	}
	for _, raw := range fields {
		if issue, ok := raw.(map[string]any); ok && issue["field"] == field {
			return true
		}
	}
	return false
}

func uniquePhone() string {
	return fmt.Sprintf("+2010%08d", time.Now().UnixNano()%100000000)
}

// uniqueNID builds a structurally valid national ID for 1995-03-15 with a
// serial unique to this run; the parity of digit 13 selects the gender.
func uniqueNID(male bool) string {
	serial := int(time.Now().UnixNano() % 5000 * 2)
	if male {
		serial++
	}
	return fmt.Sprintf("295031512%04d7", serial)
}
