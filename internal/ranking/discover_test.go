package ranking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NegroHm/uda-apuntes/internal/drive"
)

// fakeLister serves a folder tree from memory. Shared by the discovery,
// walker, aggregation and orchestrator tests.
type fakeLister struct {
	mu      sync.Mutex
	folders map[string][]drive.Entry
	errs    map[string]error
	calls   map[string]int
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		folders: make(map[string][]drive.Entry),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeLister) List(_ context.Context, folderID string) ([]drive.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[folderID]++
	if err, ok := f.errs[folderID]; ok {
		return nil, err
	}
	entries, ok := f.folders[folderID]
	if !ok {
		return nil, errors.New("folder not found: " + folderID)
	}
	return entries, nil
}

func folderEntry(id, name string) drive.Entry {
	return drive.Entry{ID: id, Name: name, MimeType: drive.FolderMimeType}
}

func fileEntry(id, name, mimeType string) drive.Entry {
	return drive.Entry{ID: id, Name: name, MimeType: mimeType}
}

func TestIsCareerFolder(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Lic. Informática", true},
		{"  Lic. Psicología  ", true},
		{"Prof. de Historia", true},
		{"Profesorado de Inglés", true},
		{"Tecnicatura en Redes", true},
		{"Tec. Superior", true},
		{"Medicina", true},
		{"Maestría en Educación", true},
		{"Escribania", true},
		{"Contador Público", true},
		{"Abogacía", true},
		{"Traductor Público", true},
		{"Sommelier Universitario", true},
		{"Otros", false},
		{"Material Común", false},
		{"licenciatura", false}, // prefixes are case sensitive
		{"", false},
	}
	for _, tc := range cases {
		if got := IsCareerFolder(tc.name); got != tc.want {
			t.Errorf("IsCareerFolder(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCareerIcon(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Medicina", "⚕️"},
		{"Contador Público", "🧮"},
		{"Abogacía", "⚖️"},
		{"Traductor Público", "🗣️"},
		{"Sommelier", "🍷"},
		{"Escribania", "📜"},
		{"Maestría en Negocios", "🎓"},
		{"Prof. de Matemática", "👩‍🏫"},
		{"Tecnicatura en Redes", "🔧"},
		{"Tec. Superior", "🔧"},
		{"Lic. Informática", "💻"},
		{"Lic. en Sistemas", "💻"},
		{"Lic. Psicología", "🧠"},
		{"Lic. Diseño Gráfico", "🎨"},
		{"Lic. Marketing", "📈"},
		{"Lic. Turismo", "✈️"},
		{"Lic. Administración de Empresas", "💼"},
		{"Lic. Comunicación Social", "📺"},
		{"Lic. Enfermería", "👩‍⚕️"},
		{"Lic. Ciencias de la Educación", "📚"},
		{"Lic. Filosofía", "🎓"},
		{"Carrera Desconocida", "🎓"},
	}
	for _, tc := range cases {
		if got := CareerIcon(tc.name); got != tc.want {
			t.Errorf("CareerIcon(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDiscoverCareers(t *testing.T) {
	lister := newFakeLister()
	lister.folders["root"] = []drive.Entry{
		folderEntry("fac-1", "Facultad de Ciencias"),
		folderEntry("fac-2", "Facultad de Salud"),
		fileEntry("readme", "README.pdf", "application/pdf"),
	}
	lister.folders["fac-1"] = []drive.Entry{
		folderEntry("car-1", "Lic. Informática"),
		folderEntry("car-2", "Tecnicatura en Redes"),
		folderEntry("misc", "Otros"),
		fileEntry("plan", "plan.pdf", "application/pdf"),
	}
	lister.folders["fac-2"] = []drive.Entry{
		folderEntry("car-3", "Medicina"),
	}

	careers, err := DiscoverCareers(context.Background(), lister, "root")
	if err != nil {
		t.Fatalf("DiscoverCareers failed: %v", err)
	}
	if len(careers) != 3 {
		t.Fatalf("expected 3 careers, got %d", len(careers))
	}

	if careers[0].Name != "Lic. Informática" || careers[0].FacultyName != "Facultad de Ciencias" {
		t.Errorf("unexpected first career: %+v", careers[0])
	}
	if careers[0].Icon != "💻" {
		t.Errorf("expected laptop icon for Lic. Informática, got %q", careers[0].Icon)
	}
	if careers[2].Name != "Medicina" || careers[2].Icon != "⚕️" {
		t.Errorf("unexpected third career: %+v", careers[2])
	}
}

func TestDiscoverCareersSkipsBrokenFaculty(t *testing.T) {
	lister := newFakeLister()
	lister.folders["root"] = []drive.Entry{
		folderEntry("fac-ok", "Facultad A"),
		folderEntry("fac-broken", "Facultad B"),
	}
	lister.folders["fac-ok"] = []drive.Entry{
		folderEntry("car-1", "Contador Público"),
	}
	lister.errs["fac-broken"] = errors.New("permission denied")

	careers, err := DiscoverCareers(context.Background(), lister, "root")
	if err != nil {
		t.Fatalf("DiscoverCareers failed: %v", err)
	}
	if len(careers) != 1 || careers[0].Name != "Contador Público" {
		t.Fatalf("expected only the reachable faculty's career, got %+v", careers)
	}
}

func TestDiscoverCareersRootErrorIsFatal(t *testing.T) {
	lister := newFakeLister()
	lister.errs["root"] = errors.New("not found")

	if _, err := DiscoverCareers(context.Background(), lister, "root"); err == nil {
		t.Fatal("expected error when root folder cannot be listed")
	}
}
