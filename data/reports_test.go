package data

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T, max int) *ReportStore {
	t.Helper()
	return NewReportStore(filepath.Join(t.TempDir(), "reports.json"), max)
}

func sampleReport(title string) *SavedReport {
	return &SavedReport{
		Title:      title,
		ReportText: "report text for " + title,
		Tone:       "professional",
		VariantA: VariantResult{
			LinkedIn: &LinkedInResult{Content: title + " content", Hashtags: []string{"Tag"}, CharacterCount: 10},
			WhatsApp: &WhatsAppResult{FormattedMessage: "*" + title + "*", PlainText: title},
		},
	}
}

func TestReportStore_SaveAndList(t *testing.T) {
	store := testStore(t, 10)

	id1, err := store.Save(sampleReport("first"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id1 == "" {
		t.Fatal("expected generated id")
	}

	id2, err := store.Save(sampleReport("second"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id2 == id1 {
		t.Fatal("ids must be unique")
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	// Newest first.
	if reports[0].Title != "second" || reports[1].Title != "first" {
		t.Fatalf("wrong order: %s, %s", reports[0].Title, reports[1].Title)
	}
	if reports[0].CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be filled in")
	}
}

func TestReportStore_EmptyHistory(t *testing.T) {
	store := testStore(t, 10)

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty history, got %d", len(reports))
	}

	if _, err := store.Get("1"); err == nil {
		t.Fatal("expected error getting from empty history")
	}
}

func TestReportStore_CapEvictsOldest(t *testing.T) {
	store := testStore(t, 3)

	for i := 1; i <= 5; i++ {
		if _, err := store.Save(sampleReport(fmt.Sprintf("report-%d", i))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(reports))
	}
	// The three newest survive.
	if reports[0].Title != "report-5" || reports[2].Title != "report-3" {
		t.Fatalf("wrong survivors: %s .. %s", reports[0].Title, reports[2].Title)
	}
}

func TestReportStore_GetByIndexIDAndPrefix(t *testing.T) {
	store := testStore(t, 10)

	idOld, _ := store.Save(sampleReport("older"))
	idNew, _ := store.Save(sampleReport("newer"))

	// 1-based index, newest first.
	rep, err := store.Get("1")
	if err != nil {
		t.Fatalf("Get by index failed: %v", err)
	}
	if rep.ID != idNew {
		t.Fatal("index 1 must be the newest report")
	}

	rep, err = store.Get(idOld)
	if err != nil {
		t.Fatalf("Get by id failed: %v", err)
	}
	if rep.Title != "older" {
		t.Fatalf("got wrong report: %s", rep.Title)
	}

	// Unique prefix resolves; uuids differ early on.
	prefix := idNew[:8]
	if strings.HasPrefix(idOld, prefix) {
		t.Skip("uuid prefix collision")
	}
	rep, err = store.Get(prefix)
	if err != nil {
		t.Fatalf("Get by prefix failed: %v", err)
	}
	if rep.ID != idNew {
		t.Fatal("prefix resolved to wrong report")
	}

	if _, err := store.Get("99"); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if _, err := store.Get("no-such-id"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestReportStore_UpdateVariantB(t *testing.T) {
	store := testStore(t, 10)

	id, _ := store.Save(sampleReport("pack"))

	b := &VariantResult{
		LinkedIn: &LinkedInResult{Content: "alternate take", CharacterCount: 14},
	}
	if err := store.UpdateVariantB(id, b); err != nil {
		t.Fatalf("UpdateVariantB failed: %v", err)
	}

	rep, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rep.VariantB == nil || rep.VariantB.LinkedIn.Content != "alternate take" {
		t.Fatal("variant B not persisted")
	}
	// A is untouched.
	if rep.VariantA.LinkedIn.Content != "pack content" {
		t.Fatal("variant A must be unchanged")
	}

	if err := store.UpdateVariantB("missing", b); err == nil {
		t.Fatal("expected error for unknown report")
	}
}

func TestReportStore_SetTitle(t *testing.T) {
	store := testStore(t, 10)

	id, _ := store.Save(sampleReport("old name"))
	if err := store.SetTitle(id, "new name"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}

	rep, _ := store.Get(id)
	if rep.Title != "new name" {
		t.Fatalf("title not updated: %s", rep.Title)
	}
}

func TestReportStore_Delete(t *testing.T) {
	store := testStore(t, 10)

	idKeep, _ := store.Save(sampleReport("keep"))
	idDrop, _ := store.Save(sampleReport("drop"))

	if err := store.Delete(idDrop); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	reports, _ := store.List()
	if len(reports) != 1 || reports[0].ID != idKeep {
		t.Fatal("wrong report deleted")
	}

	if err := store.Delete("missing"); err == nil {
		t.Fatal("expected error deleting unknown report")
	}
}

func TestReportStore_Clear(t *testing.T) {
	store := testStore(t, 10)

	store.Save(sampleReport("a"))
	store.Save(sampleReport("b"))

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	reports, err := store.List()
	if err != nil {
		t.Fatalf("List after clear failed: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty history, got %d", len(reports))
	}

	// Clearing an already-empty history is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestReportStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")

	first := NewReportStore(path, 10)
	id, err := first.Save(sampleReport("durable"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := NewReportStore(path, 10)
	rep, err := second.Get(id)
	if err != nil {
		t.Fatalf("Get from fresh store failed: %v", err)
	}
	if rep.Title != "durable" {
		t.Fatalf("got wrong report: %s", rep.Title)
	}
}
