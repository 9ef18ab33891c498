package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/followuphq/followup/internal/session"
)

func authedRequest(method, target string, body []byte, sess session.Session) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(session.WithSession(req.Context(), sess))
}

func withLeadID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newTestHandler() (*Handler, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	return NewHandler(repo, nil, nil), repo
}

func TestListRequiresSession(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListReturnsOnlyCallersLeads(t *testing.T) {
	handler, repo := newTestHandler()
	seedLead(t, repo, CreateLeadRequest{UserID: "user-a", Name: "Mine", Phone: "1"})
	seedLead(t, repo, CreateLeadRequest{UserID: "user-b", Name: "Theirs", Phone: "2"})

	req := authedRequest(http.MethodGet, "/api/leads", nil, session.Session{UserID: "user-a"})
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []Lead
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Mine" {
		t.Fatalf("unexpected listing: %+v", out)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	handler, _ := newTestHandler()

	req := authedRequest(http.MethodGet, "/api/leads?status=WON", nil, session.Session{UserID: "u"})
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSaveCreatesLeadForCaller(t *testing.T) {
	handler, _ := newTestHandler()

	// Client-supplied userId must not become the owner.
	body := []byte(`{"name":"Jane Doe","phone":"15551234567","userId":"evil-user"}`)
	req := authedRequest(http.MethodPost, "/api/leads", body, session.Session{UserID: "user-1"})
	rec := httptest.NewRecorder()
	handler.Save(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var lead Lead
	if err := json.NewDecoder(rec.Body).Decode(&lead); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lead.UserID != "user-1" {
		t.Fatalf("expected owner user-1, got %s", lead.UserID)
	}
	if lead.Status != StatusNew {
		t.Fatalf("expected default NEW status, got %s", lead.Status)
	}
	if lead.ID == "" {
		t.Fatal("expected generated id in response")
	}
}

func TestSaveValidationFailure(t *testing.T) {
	handler, _ := newTestHandler()

	body := []byte(`{"name":"","phone":"","email":"nope"}`)
	req := authedRequest(http.MethodPost, "/api/leads", body, session.Session{UserID: "u"})
	rec := httptest.NewRecorder()
	handler.Save(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"name", "phone", "email"} {
		if _, ok := resp.Fields[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, resp.Fields)
		}
	}
}

func TestSaveInvalidJSON(t *testing.T) {
	handler, _ := newTestHandler()

	req := authedRequest(http.MethodPost, "/api/leads", []byte("{"), session.Session{UserID: "u"})
	rec := httptest.NewRecorder()
	handler.Save(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSaveWithIDUpdatesExistingLead(t *testing.T) {
	handler, repo := newTestHandler()
	lead := seedLead(t, repo, CreateLeadRequest{UserID: "u", Name: "Jane", Phone: "1"})

	body := []byte(`{"id":"` + lead.ID + `","status":"CONTACTED"}`)
	req := authedRequest(http.MethodPost, "/api/leads", body, session.Session{UserID: "u"})
	rec := httptest.NewRecorder()
	handler.Save(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated Lead
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != StatusContacted || updated.Name != "Jane" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestGetNotFoundShapeMatchesForeignLead(t *testing.T) {
	handler, repo := newTestHandler()
	lead := seedLead(t, repo, CreateLeadRequest{UserID: "owner", Name: "Jane", Phone: "1"})

	// Nonexistent id.
	req := withLeadID(authedRequest(http.MethodGet, "/api/leads/missing", nil, session.Session{UserID: "intruder"}), "missing")
	recMissing := httptest.NewRecorder()
	handler.Get(recMissing, req)

	// Exists but owned by someone else.
	req = withLeadID(authedRequest(http.MethodGet, "/api/leads/"+lead.ID, nil, session.Session{UserID: "intruder"}), lead.ID)
	recForeign := httptest.NewRecorder()
	handler.Get(recForeign, req)

	if recMissing.Code != http.StatusNotFound || recForeign.Code != http.StatusNotFound {
		t.Fatalf("expected 404/404, got %d/%d", recMissing.Code, recForeign.Code)
	}
	if recMissing.Body.String() != recForeign.Body.String() {
		t.Fatalf("not-found responses differ: %q vs %q", recMissing.Body.String(), recForeign.Body.String())
	}
}

func TestUpdatePartialViaPatch(t *testing.T) {
	handler, repo := newTestHandler()
	lead := seedLead(t, repo, CreateLeadRequest{UserID: "u", Name: "Jane", Phone: "1", Notes: "old"})

	body := []byte(`{"notes":"new note"}`)
	req := withLeadID(authedRequest(http.MethodPatch, "/api/leads/"+lead.ID, body, session.Session{UserID: "u"}), lead.ID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var updated Lead
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Notes != "new note" || updated.Name != "Jane" || updated.Phone != "1" {
		t.Fatalf("partial update touched other fields: %+v", updated)
	}
}

func TestDeleteByPathAndQuery(t *testing.T) {
	handler, repo := newTestHandler()
	first := seedLead(t, repo, CreateLeadRequest{UserID: "u", Name: "A", Phone: "1"})
	second := seedLead(t, repo, CreateLeadRequest{UserID: "u", Name: "B", Phone: "2"})

	req := withLeadID(authedRequest(http.MethodDelete, "/api/leads/"+first.ID, nil, session.Session{UserID: "u"}), first.ID)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("path delete: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lead deleted") {
		t.Fatalf("expected confirmation body, got %s", rec.Body.String())
	}

	// Legacy query-parameter form.
	req = authedRequest(http.MethodDelete, "/api/leads?id="+second.ID, nil, session.Session{UserID: "u"})
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query delete: expected 200, got %d", rec.Code)
	}

	// Repeat delete is a 404, not a silent success.
	req = authedRequest(http.MethodDelete, "/api/leads?id="+second.ID, nil, session.Session{UserID: "u"})
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: expected 404, got %d", rec.Code)
	}
}

func TestDeleteRequiresID(t *testing.T) {
	handler, _ := newTestHandler()

	req := authedRequest(http.MethodDelete, "/api/leads", nil, session.Session{UserID: "u"})
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
