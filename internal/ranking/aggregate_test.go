package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/NegroHm/uda-apuntes/internal/drive"
)

func testCareer(id, name string) CareerFolder {
	return CareerFolder{
		Entry:       folderEntry(id, name),
		FacultyName: "Facultad de Prueba",
		Icon:        CareerIcon(name),
	}
}

func TestAggregate(t *testing.T) {
	lister := newFakeLister()
	lister.folders["car-1"] = []drive.Entry{
		fileEntry("f1", "apuntes.pdf", "application/pdf"),
		fileEntry("f2", "resumen.pdf", "application/pdf"),
		fileEntry("f3", "foto.png", "image/png"),
		folderEntry("extra", "Extra"),
	}
	lister.folders["extra"] = []drive.Entry{
		fileEntry("f4", "tp.docx", ""),
	}

	agg := NewAggregator(lister, DefaultWeights(), 0, 2)
	stat := agg.Aggregate(context.Background(), testCareer("car-1", "Lic. Test"))

	if stat.ID != "car-1" || stat.Name != "Lic. Test" || stat.FacultyName != "Facultad de Prueba" {
		t.Errorf("identity fields lost: %+v", stat)
	}
	if stat.TotalFiles != 4 {
		t.Errorf("TotalFiles = %d, want 4", stat.TotalFiles)
	}
	// 2 PDFs (3 each) + 1 Word (2) + 1 image (1) = 9
	if stat.TotalScore != 9 {
		t.Errorf("TotalScore = %d, want 9", stat.TotalScore)
	}
	want := FileTypeTally{PDF: 2, Word: 1, Images: 1, Presentations: 0}
	if stat.FileTypes != want {
		t.Errorf("FileTypes = %+v, want %+v", stat.FileTypes, want)
	}
	if stat.FoldersProcessed != 1 {
		t.Errorf("FoldersProcessed = %d, want 1", stat.FoldersProcessed)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	lister := newFakeLister()
	lister.folders["car-1"] = []drive.Entry{
		fileEntry("f1", "a.pdf", "application/pdf"),
		fileEntry("f2", "b.pptx", ""),
	}

	agg := NewAggregator(lister, DefaultWeights(), 0, 1)
	career := testCareer("car-1", "Medicina")

	first := agg.Aggregate(context.Background(), career)
	second := agg.Aggregate(context.Background(), career)
	if first != second {
		t.Errorf("repeated aggregation differs: %+v vs %+v", first, second)
	}
}

func TestAggregateBrokenCareerScoresZero(t *testing.T) {
	lister := newFakeLister()
	lister.errs["car-1"] = errors.New("permission denied")

	agg := NewAggregator(lister, DefaultWeights(), 0, 1)
	stat := agg.Aggregate(context.Background(), testCareer("car-1", "Abogacía"))

	if stat.TotalFiles != 0 || stat.TotalScore != 0 || stat.FoldersProcessed != 0 {
		t.Errorf("expected zero-valued stat, got %+v", stat)
	}
	// Identity survives so the career still shows up ranked last.
	if stat.ID != "car-1" || stat.Name != "Abogacía" || stat.Icon != "⚖️" {
		t.Errorf("identity fields lost on failure: %+v", stat)
	}
}
