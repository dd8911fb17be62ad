package ranking

import (
	"fmt"
	"strings"

	"context"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/logging"
)

// careerPrefixes are the recognized degree-program name prefixes, in match
// order. A folder whose trimmed name starts with none of them is not a
// career folder.
var careerPrefixes = []string{
	"Lic.",
	"Prof",
	"Tecnicatura",
	"Tec",
	"Medicina",
	"Maestría",
	"Escribania",
	"Contador",
	"Abogacía",
	"Traductor",
	"Sommelier",
}

// IsCareerFolder reports whether a folder name identifies a career.
func IsCareerFolder(name string) bool {
	trimmed := strings.TrimSpace(name)
	for _, prefix := range careerPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// licIcons maps keywords embedded in "Lic." career names to icons,
// consulted in order.
var licIcons = []struct {
	keywords []string
	icon     string
}{
	{[]string{"informática", "informatica", "software", "sistemas"}, "💻"},
	{[]string{"psicología", "psicologia"}, "🧠"},
	{[]string{"diseño", "diseno", "gráfico", "grafico"}, "🎨"},
	{[]string{"marketing", "mercadeo"}, "📈"},
	{[]string{"turismo", "hotelería", "hoteleria"}, "✈️"},
	{[]string{"administración", "administracion", "empresas"}, "💼"},
	{[]string{"comunicación", "comunicacion", "periodismo"}, "📺"},
	{[]string{"enfermería", "enfermeria"}, "👩‍⚕️"},
	{[]string{"educación", "educacion"}, "📚"},
}

// CareerIcon chooses the presentation icon for a career name. The table is
// keyword-matched on the lowercased name, most specific prefixes first;
// the fallback is a graduation cap.
func CareerIcon(folderName string) string {
	name := strings.ToLower(folderName)

	switch {
	case strings.HasPrefix(name, "medicina"):
		return "⚕️"
	case strings.HasPrefix(name, "contador"):
		return "🧮"
	case strings.HasPrefix(name, "abogacía"):
		return "⚖️"
	case strings.HasPrefix(name, "traductor"):
		return "🗣️"
	case strings.HasPrefix(name, "sommelier"):
		return "🍷"
	case strings.HasPrefix(name, "escribania"):
		return "📜"
	case strings.HasPrefix(name, "maestría"):
		return "🎓"
	case strings.HasPrefix(name, "prof"):
		return "👩‍🏫"
	case strings.HasPrefix(name, "tecnicatura"), strings.HasPrefix(name, "tec"):
		return "🔧"
	case strings.HasPrefix(name, "lic."):
		for _, entry := range licIcons {
			for _, kw := range entry.keywords {
				if strings.Contains(name, kw) {
					return entry.icon
				}
			}
		}
		return "🎓"
	}
	return "🎓"
}

// CareerFolder is a discovered career folder. Lives only for the duration
// of one ranking pass.
type CareerFolder struct {
	drive.Entry
	FacultyName string
	Icon        string
}

// DiscoverCareers lists the faculty folders under rootFolderID and returns
// every career folder inside them. A faculty that cannot be listed is
// skipped with a warning; a root that cannot be listed is fatal.
func DiscoverCareers(ctx context.Context, lister drive.Lister, rootFolderID string) ([]CareerFolder, error) {
	rootEntries, err := lister.List(ctx, rootFolderID)
	if err != nil {
		return nil, fmt.Errorf("list root folder: %w", err)
	}

	var careers []CareerFolder
	for _, faculty := range rootEntries {
		if !faculty.IsFolder() {
			continue
		}

		children, err := lister.List(ctx, faculty.ID)
		if err != nil {
			logging.Warn("skipping faculty folder",
				zap.String("faculty", faculty.Name),
				zap.Error(err))
			continue
		}

		for _, child := range children {
			if !child.IsFolder() || !IsCareerFolder(child.Name) {
				continue
			}
			careers = append(careers, CareerFolder{
				Entry:       child,
				FacultyName: faculty.Name,
				Icon:        CareerIcon(child.Name),
			})
		}
	}

	logging.Info("career discovery finished",
		zap.Int("faculties", len(rootEntries)),
		zap.Int("careers", len(careers)))
	return careers, nil
}
