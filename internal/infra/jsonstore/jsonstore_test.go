package jsonstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clubledger/clubledger/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "members_data.json"), filepath.Join(dir, "backups"), 3, nil)
	return s, dir
}

func sampleMember(id string) *domain.Member {
	return &domain.Member{
		ID:           id,
		Name:         "Wang",
		Phone:        "13800000000",
		Birthday:     "1990-05-01",
		Level:        domain.TierSilver,
		Balance:      domain.AmountFromFloat(120.5),
		Points:       domain.AmountFromInt(30),
		TotalSpent:   domain.AmountFromInt(1200),
		Status:       domain.StatusNormal,
		CreatedTime:  "2024-01-02 03:04:05",
		Transactions: []domain.Transaction{},
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("missing file should load as empty collection, got %d members", len(got))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	in := map[string]*domain.Member{"VIP1": sampleMember("VIP1")}

	if err := s.Save(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}

	got, ok := out["VIP1"]
	if !ok {
		t.Fatal("member missing after round trip")
	}
	want := in["VIP1"]
	if got.Name != want.Name || got.Phone != want.Phone || got.Birthday != want.Birthday {
		t.Errorf("profile drift: got %+v", got)
	}
	if !got.Balance.Equal(want.Balance) || !got.Points.Equal(want.Points) || !got.TotalSpent.Equal(want.TotalSpent) {
		t.Errorf("amount drift: %s / %s / %s", got.Balance, got.Points, got.TotalSpent)
	}
	if got.Level != want.Level || got.Status != want.Status || got.CreatedTime != want.CreatedTime {
		t.Errorf("metadata drift: got %+v", got)
	}
}

func TestSave_AmountsEncodedAsStrings(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Save(map[string]*domain.Member{"VIP1": sampleMember("VIP1")}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"balance": "120.50"`) {
		t.Errorf("balance not encoded as fixed-2 string:\n%s", raw)
	}

	var f struct {
		Version     string `json:"version"`
		LastUpdated string `json:"last_updated"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatal(err)
	}
	if f.Version != Version {
		t.Errorf("version = %q, want %q", f.Version, Version)
	}
	if f.LastUpdated == "" {
		t.Error("last_updated not set")
	}
}

func TestSave_RefusesInvalidMember(t *testing.T) {
	s, _ := newTestStore(t)

	noName := sampleMember("VIP1")
	noName.Name = "  "
	if err := s.Save(map[string]*domain.Member{"VIP1": noName}); !errors.Is(err, domain.ErrWriteFailed) {
		t.Errorf("empty name: error = %v, want ErrWriteFailed", err)
	}

	badPhone := sampleMember("VIP2")
	badPhone.Phone = "12345"
	if err := s.Save(map[string]*domain.Member{"VIP2": badPhone}); !errors.Is(err, domain.ErrWriteFailed) {
		t.Errorf("bad phone: error = %v, want ErrWriteFailed", err)
	}

	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("refused save still wrote the data file")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	s, _ := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); !errors.Is(err, domain.ErrCorrupt) {
		t.Errorf("error = %v, want ErrCorrupt", err)
	}
}

func TestLoad_BackfillsIDFromKey(t *testing.T) {
	s, _ := newTestStore(t)
	content := `{"members": {"VIP1": {"name": "Wang", "phone": "13800000000"}, "VIP2": null}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("members = %d, want 1 (null entries dropped)", len(got))
	}
	if got["VIP1"].ID != "VIP1" {
		t.Errorf("id = %q, want backfilled from map key", got["VIP1"].ID)
	}
}

func TestLoad_AcceptsBareNumbers(t *testing.T) {
	s, _ := newTestStore(t)
	// Hand-written files may carry numbers instead of decimal strings.
	content := `{"members": {"VIP1": {"name": "Wang", "phone": "13800000000", "balance": 99.5, "points": 10}}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got["VIP1"].Balance.String() != "99.50" {
		t.Errorf("balance = %s, want 99.50", got["VIP1"].Balance)
	}
	if got["VIP1"].Points.String() != "10.00" {
		t.Errorf("points = %s, want 10.00", got["VIP1"].Points)
	}
}

func TestBackupRotation(t *testing.T) {
	s, dir := newTestStore(t)
	backupDir := filepath.Join(dir, "backups")

	// Pre-seed old backups; names embed timestamps, so name order is age
	// order.
	if err := os.MkdirAll(backupDir, 0o700); err != nil {
		t.Fatal(err)
	}
	old := []string{
		"backup_20200101_000000.json",
		"backup_20200102_000000.json",
		"backup_20200103_000000.json",
	}
	for _, n := range old {
		if err := os.WriteFile(filepath.Join(backupDir, n), []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Save(map[string]*domain.Member{"VIP1": sampleMember("VIP1")}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 3 {
		t.Fatalf("backups = %v, want 3 kept", names)
	}
	for _, n := range names {
		if n == "backup_20200101_000000.json" {
			t.Error("oldest backup should have been pruned")
		}
	}
	// The fresh backup must survive the prune.
	fresh := false
	for _, n := range names {
		if n > old[2] {
			fresh = true
		}
	}
	if !fresh {
		t.Errorf("new backup missing: %v", names)
	}
}

func TestExportTo(t *testing.T) {
	s, dir := newTestStore(t)
	path := filepath.Join(dir, "export.json")

	if err := s.ExportTo(path, map[string]*domain.Member{"VIP1": sampleMember("VIP1")}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f struct {
		Members    map[string]*domain.Member `json:"members"`
		ExportTime string                    `json:"export_time"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Members) != 1 || f.ExportTime == "" {
		t.Errorf("export shape wrong: %d members, time %q", len(f.Members), f.ExportTime)
	}
}
