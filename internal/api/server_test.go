package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/ledger"
)

// ─── Test Fixtures ──────────────────────────────────────────────────────────

type memGateway struct{}

func (memGateway) Load() (map[string]*domain.Member, error) {
	return make(map[string]*domain.Member), nil
}

func (memGateway) Save(map[string]*domain.Member) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Engine) {
	t.Helper()
	ring := NewStatusRing(10, nil)
	eng := ledger.New(ledger.DefaultConfig(), memGateway{}, ledger.WithNotifier(ring))
	if err := eng.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	ts := httptest.NewServer(NewServer(eng, ring, 7).Handler())
	t.Cleanup(ts.Close)
	return ts, eng
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createMember(t *testing.T, ts *httptest.Server, name, phone string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/members", map[string]string{
		"name": name, "phone": phone,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member: status = %d", resp.StatusCode)
	}
	var m struct {
		ID string `json:"id"`
	}
	decode(t, resp, &m)
	if m.ID == "" {
		t.Fatal("create member: empty id")
	}
	return m.ID
}

// ─── Plumbing ───────────────────────────────────────────────────────────────

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/version", nil)
	var v struct {
		Version string `json:"version"`
	}
	decode(t, resp, &v)
	if v.Version != Version {
		t.Errorf("version = %q, want %q", v.Version, Version)
	}
}

// ─── Members ────────────────────────────────────────────────────────────────

func TestCreateMember(t *testing.T) {
	ts, eng := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	m, err := eng.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "Wang" || m.Level != domain.TierBase {
		t.Errorf("member = %+v", m)
	}
}

func TestCreateMember_ErrorStatuses(t *testing.T) {
	ts, _ := newTestServer(t)
	createMember(t, ts, "Wang", "13800000000")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"invalid phone", map[string]string{"name": "Li", "phone": "12345"}, http.StatusBadRequest},
		{"empty name", map[string]string{"name": "", "phone": "13900000000"}, http.StatusBadRequest},
		{"duplicate phone", map[string]string{"name": "Li", "phone": "13800000000"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/members", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestGetMember_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/members/VIPMISSING", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListMembers_Search(t *testing.T) {
	ts, _ := newTestServer(t)
	createMember(t, ts, "Wang Wei", "13800000000")
	createMember(t, ts, "Li Na", "13900000000")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/members?q=wang", nil)
	var out struct {
		Count int `json:"count"`
	}
	decode(t, resp, &out)
	if out.Count != 1 {
		t.Errorf("count = %d, want 1", out.Count)
	}
}

func TestUpdateMember(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/members/"+id, map[string]string{
		"name": "Wang Wei", "phone": "13800000000", "birthday": "1990-05-01",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var m struct {
		Name     string `json:"name"`
		Birthday string `json:"birthday"`
	}
	decode(t, resp, &m)
	if m.Name != "Wang Wei" || m.Birthday != "1990-05-01" {
		t.Errorf("member = %+v", m)
	}
}

func TestDeleteMember_RequiresConfirm(t *testing.T) {
	ts, eng := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/members/"+id, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unconfirmed delete status = %d, want 400", resp.StatusCode)
	}
	if _, err := eng.Get(id); err != nil {
		t.Error("unconfirmed delete removed the member")
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/members/"+id+"?confirm=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("confirmed delete status = %d", resp.StatusCode)
	}
	if _, err := eng.Get(id); err == nil {
		t.Error("member survived confirmed delete")
	}
}

// ─── Balance & Points ───────────────────────────────────────────────────────

func TestBalanceFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/balance", map[string]string{
		"operation": "credit", "amount": "200",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("credit status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/balance", map[string]string{
		"operation": "debit", "amount": "100",
	})
	var m struct {
		Balance    string `json:"balance"`
		Points     string `json:"points"`
		TotalSpent string `json:"total_spent"`
	}
	decode(t, resp, &m)
	if m.Balance != "100.00" || m.Points != "10.00" || m.TotalSpent != "100.00" {
		t.Errorf("after debit: %+v", m)
	}
}

func TestBalance_ErrorStatuses(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"bad amount", map[string]string{"operation": "credit", "amount": "abc"}, http.StatusBadRequest},
		{"zero amount", map[string]string{"operation": "credit", "amount": "0"}, http.StatusBadRequest},
		{"insufficient balance", map[string]string{"operation": "debit", "amount": "50"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/balance", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestBalance_FrozenMemberConflicts(t *testing.T) {
	ts, eng := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")
	if _, err := eng.Update(id, "Wang", "13800000000", "", "", domain.StatusFrozen); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/balance", map[string]string{
		"operation": "credit", "amount": "10",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestExchangeAndAdjust(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/points/adjust", map[string]string{
		"delta": "300", "reason": "promotion grant",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("adjust status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/points/exchange", map[string]string{
		"points": "200",
	})
	var m struct {
		Balance string `json:"balance"`
		Points  string `json:"points"`
	}
	decode(t, resp, &m)
	if m.Balance != "2.00" || m.Points != "100.00" {
		t.Errorf("after exchange: %+v", m)
	}

	// Not a multiple of the redemption unit.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/points/exchange", map[string]string{
		"points": "50",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid redemption status = %d, want 400", resp.StatusCode)
	}
}

func TestAdjust_MissingReason(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/points/adjust", map[string]string{
		"delta": "10",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// ─── Transactions & Reports ─────────────────────────────────────────────────

func TestTransactions(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMember(t, ts, "Wang", "13800000000")
	doJSON(t, http.MethodPost, ts.URL+"/api/members/"+id+"/balance", map[string]string{
		"operation": "credit", "amount": "200",
	})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/members/"+id+"/transactions", nil)
	var out struct {
		Count int `json:"count"`
	}
	decode(t, resp, &out)
	if out.Count != 1 {
		t.Errorf("count = %d, want 1", out.Count)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/members/"+id+"/transactions", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unconfirmed clear status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/members/"+id+"/transactions?confirm=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("confirmed clear status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/members/"+id+"/transactions", nil)
	decode(t, resp, &out)
	if out.Count != 0 {
		t.Errorf("count after clear = %d, want 0", out.Count)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	createMember(t, ts, "Wang", "13800000000")
	createMember(t, ts, "Li", "13900000000")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats", nil)
	var s struct {
		Members      int    `json:"members"`
		TotalBalance string `json:"total_balance"`
	}
	decode(t, resp, &s)
	if s.Members != 2 {
		t.Errorf("members = %d, want 2", s.Members)
	}
	if s.TotalBalance != "0.00" {
		t.Errorf("total balance = %q, want 0.00", s.TotalBalance)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	createMember(t, ts, "Wang", "13800000000")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/status", nil)
	var out struct {
		Count    int          `json:"count"`
		Messages []StatusLine `json:"messages"`
	}
	decode(t, resp, &out)
	if out.Count == 0 {
		t.Fatal("no status messages after a mutation")
	}
	found := false
	for _, l := range out.Messages {
		if l.Message != "" && l.Time != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("messages = %+v", out.Messages)
	}
}

// ─── Status Ring ────────────────────────────────────────────────────────────

func TestStatusRing_NewestFirst(t *testing.T) {
	r := NewStatusRing(3, nil)
	for i := 1; i <= 2; i++ {
		r.Notify(fmt.Sprintf("msg %d", i))
	}

	got := r.Recent()
	if len(got) != 2 {
		t.Fatalf("recent = %d lines, want 2", len(got))
	}
	if got[0].Message != "msg 2" || got[1].Message != "msg 1" {
		t.Errorf("order = %q, %q", got[0].Message, got[1].Message)
	}
}

func TestStatusRing_Wraps(t *testing.T) {
	r := NewStatusRing(3, nil)
	for i := 1; i <= 5; i++ {
		r.Notify(fmt.Sprintf("msg %d", i))
	}

	got := r.Recent()
	if len(got) != 3 {
		t.Fatalf("recent = %d lines, want 3", len(got))
	}
	if got[0].Message != "msg 5" || got[2].Message != "msg 3" {
		t.Errorf("window = %q .. %q", got[0].Message, got[2].Message)
	}
}
