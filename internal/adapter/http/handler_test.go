package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/voltmile/claimflow/internal/adapter/fsm"
	adapter "github.com/voltmile/claimflow/internal/adapter/http"
	"github.com/voltmile/claimflow/internal/adapter/sqlite"
	"github.com/voltmile/claimflow/internal/app"
	"github.com/voltmile/claimflow/internal/domain"
)

const testVIN = "5YJ3E1EA7JF000001"

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.Event, _ domain.Claim) error {
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory,
// seeded with one registered vehicle, an active warranty, and battery pack
// stock.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	registry := sqlite.NewRegistry(repo.DB())
	if err := registry.AddVehicle(ctx, domain.VehicleRecord{VIN: testVIN, Model: "VM-3", Year: 2024}); err != nil {
		t.Fatalf("seeding vehicle: %v", err)
	}
	warranty := domain.WarrantyActivation{
		ID: "wa-1", VIN: testVIN, Status: "active",
		WarrantyEndDate: time.Now().UTC().Add(365 * 24 * time.Hour),
	}
	if err := registry.AddWarranty(ctx, warranty); err != nil {
		t.Fatalf("seeding warranty: %v", err)
	}
	inventory := sqlite.NewInventory(repo.DB())
	if err := inventory.SetStock(ctx, "Battery Pack", 10); err != nil {
		t.Fatalf("seeding stock: %v", err)
	}

	svc := app.NewClaimService(repo, fsm.New(), registry, registry, inventory, &noopPublisher{})

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("claimflow", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request as the given actor.
func doRequest(t *testing.T, method, url, body, email, role string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-Email", email)
	req.Header.Set("X-Actor-Role", role)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

func asStaff(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	return doRequest(t, method, url, body, "staff@voltmile.example", "service_staff")
}

func asTechnician(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	return doRequest(t, method, url, body, "tech@voltmile.example", "technician")
}

func decodeClaim(t *testing.T, resp *http.Response) adapter.ClaimResponse {
	t.Helper()
	var claim adapter.ClaimResponse
	if err := json.NewDecoder(resp.Body).Decode(&claim); err != nil {
		t.Fatalf("decode claim: %v", err)
	}
	return claim
}

// mustCreateClaim files a claim via the API and returns its response.
func mustCreateClaim(t *testing.T, srv *httptest.Server) adapter.ClaimResponse {
	t.Helper()

	body := fmt.Sprintf(`{
		"vin": %q,
		"issue_description": "battery loses charge overnight",
		"issue_category": "battery",
		"priority": "high",
		"mileage": 42100,
		"parts_to_replace": [{"part_name": "Battery Pack", "quantity": 1, "reason": "module 3 degraded"}]
	}`, testVIN)
	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create claim: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	return decodeClaim(t, resp)
}

// mustPost performs a staff POST that is expected to succeed.
func mustPost(t *testing.T, srv *httptest.Server, path, body string) adapter.ClaimResponse {
	t.Helper()
	resp := asStaff(t, http.MethodPost, srv.URL+path, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status = %d, want %d", path, resp.StatusCode, http.StatusOK)
	}
	return decodeClaim(t, resp)
}

// --- Create ---

func TestCreate(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)

	if claim.ID == "" {
		t.Error("ID should not be empty")
	}
	if !strings.HasPrefix(claim.ClaimNumber, "WC-") {
		t.Errorf("ClaimNumber = %q, want WC- prefix", claim.ClaimNumber)
	}
	if claim.Status != "pending" {
		t.Errorf("Status = %q, want %q", claim.Status, "pending")
	}
	if claim.VIN != testVIN {
		t.Errorf("VIN = %q", claim.VIN)
	}
	if claim.Version != 1 {
		t.Errorf("Version = %d, want 1", claim.Version)
	}
	if len(claim.StatusHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(claim.StatusHistory))
	}
}

func TestCreate_UnknownVehicle(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"vin": "WVWZZZ1KZAW000002",
		"issue_description": "motor whine",
		"issue_category": "motor",
		"priority": "low"
	}`
	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestCreate_ShortVIN(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"vin": "SHORT",
		"issue_description": "motor whine",
		"issue_category": "motor",
		"priority": "low"
	}`
	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- Get / List ---

func TestGet_ByIDAndNumber(t *testing.T) {
	srv := newTestServer(t)
	created := mustCreateClaim(t, srv)

	resp := asStaff(t, http.MethodGet, srv.URL+"/api/v1/claims/"+created.ID, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by id: status = %d", resp.StatusCode)
	}
	if got := decodeClaim(t, resp); got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	resp = asStaff(t, http.MethodGet, srv.URL+"/api/v1/claims/by-number/"+created.ClaimNumber, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by number: status = %d", resp.StatusCode)
	}
	if got := decodeClaim(t, resp); got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}

func TestGet_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := asStaff(t, http.MethodGet, srv.URL+"/api/v1/claims/nonexistent", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestList_FilterByStatus(t *testing.T) {
	srv := newTestServer(t)
	first := mustCreateClaim(t, srv)
	mustCreateClaim(t, srv)

	mustPost(t, srv, "/api/v1/claims/"+first.ID+"/submit", "")

	resp := asStaff(t, http.MethodGet, srv.URL+"/api/v1/claims?status=under_review", "")
	defer resp.Body.Close()

	var claims []adapter.ClaimResponse
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("got %d claims, want 1", len(claims))
	}
	if claims[0].ID != first.ID {
		t.Errorf("ID = %q, want %q", claims[0].ID, first.ID)
	}
}

// --- Review ---

func TestReviewFlow(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)

	submitted := mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/submit", "")
	if submitted.Status != "under_review" {
		t.Errorf("Status = %q, want %q", submitted.Status, "under_review")
	}

	approved := mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/approve", `{"notes":"covered under drivetrain warranty"}`)
	if approved.Status != "approved" {
		t.Errorf("Status = %q, want %q", approved.Status, "approved")
	}
	if approved.ApprovedBy == "" || approved.ApprovedAt == nil {
		t.Error("approval fields not stamped")
	}
	if len(approved.StatusHistory) != 3 {
		t.Errorf("history length = %d, want 3", len(approved.StatusHistory))
	}
}

func TestReject_ShortReason(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)
	mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/submit", "")

	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims/"+claim.ID+"/reject", `{"reason":"too short"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestApprove_SkippingReviewFails(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)

	// Approve straight from pending: illegal transition.
	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims/"+claim.ID+"/approve", `{}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestReject_ForbiddenForTechnician(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)
	mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/submit", "")

	resp := asTechnician(t, http.MethodPost, srv.URL+"/api/v1/claims/"+claim.ID+"/reject", `{"reason":"not my call to make"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

// --- Full lifecycle over the wire ---

func TestFullLifecycle(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)
	base := "/api/v1/claims/" + claim.ID

	mustPost(t, srv, base+"/submit", "")
	mustPost(t, srv, base+"/approve", `{"notes":"approved"}`)
	mustPost(t, srv, base+"/parts/ship", `{
		"tracking_number": "TRACK123",
		"parts": [{"part_name": "Battery Pack", "serial_number": "BP-7781", "quantity": 1}]
	}`)

	received := mustPost(t, srv, base+"/parts/receive", `{
		"received_by": "tech@voltmile.example",
		"parts": [{"part_name": "Battery Pack", "serial_number": "BP-7781", "condition": "good", "received_quantity": 1}]
	}`)
	if received.Status != "parts_received" {
		t.Fatalf("Status = %q, want %q", received.Status, "parts_received")
	}

	mustPost(t, srv, base+"/repair/start", `{"technician": "tech@voltmile.example"}`)
	mustPost(t, srv, base+"/repair/quality-check", `{"passed": true, "notes": "all checks green"}`)
	completed := mustPost(t, srv, base+"/repair/complete", `{"labor_hours": 6.5, "total_cost": 8400}`)
	if completed.Status != "repair_completed" {
		t.Fatalf("Status = %q, want %q", completed.Status, "repair_completed")
	}

	mustPost(t, srv, base+"/results/photos", `{
		"photos": [{"url": "https://files.voltmile.example/claims/after-1.jpg", "description": "new pack installed"}]
	}`)
	mustPost(t, srv, base+"/results/completion", `{"work_summary": "pack swap"}`)
	mustPost(t, srv, base+"/results/handover", `{
		"customer_name": "Dana Weber",
		"customer_phone": "+49 170 0000000",
		"vehicle_condition": "good"
	}`)

	closed := mustPost(t, srv, base+"/close", "")
	if closed.Status != "completed" {
		t.Errorf("Status = %q, want %q", closed.Status, "completed")
	}
	if len(closed.StatusHistory) != 11 {
		t.Errorf("history length = %d, want 11", len(closed.StatusHistory))
	}

	// A closed claim is gone for mutation purposes.
	resp := asStaff(t, http.MethodPost, srv.URL+base+"/close", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusGone {
		t.Errorf("second close: status = %d, want %d", resp.StatusCode, http.StatusGone)
	}
}

func TestDefectiveParts_RejectShipment(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)
	base := "/api/v1/claims/" + claim.ID

	mustPost(t, srv, base+"/submit", "")
	mustPost(t, srv, base+"/approve", `{}`)
	mustPost(t, srv, base+"/parts/ship", `{
		"tracking_number": "TRACK123",
		"parts": [{"part_name": "Battery Pack", "serial_number": "BP-7781", "quantity": 1}]
	}`)

	rejected := mustPost(t, srv, base+"/parts/receive", `{
		"received_by": "tech@voltmile.example",
		"parts": [{"part_name": "Battery Pack", "serial_number": "BP-7781", "condition": "defective", "received_quantity": 1}]
	}`)
	if rejected.Status != "parts_rejected" {
		t.Errorf("Status = %q, want %q", rejected.Status, "parts_rejected")
	}
}

func TestCancel(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)

	cancelled := mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/cancel", `{"reason":"customer sold the vehicle"}`)
	if cancelled.Status != "cancelled" {
		t.Errorf("Status = %q, want %q", cancelled.Status, "cancelled")
	}
}

func TestConflictOnStaleVersion(t *testing.T) {
	srv := newTestServer(t)
	claim := mustCreateClaim(t, srv)

	// Two submits: the second hits an already-reviewed claim, which the
	// validator rejects before any version check.
	mustPost(t, srv, "/api/v1/claims/"+claim.ID+"/submit", "")
	resp := asStaff(t, http.MethodPost, srv.URL+"/api/v1/claims/"+claim.ID+"/submit", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}
