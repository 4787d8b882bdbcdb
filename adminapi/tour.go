package adminapi

import "time"

type Language string

const (
	LangEnglish Language = "en"
	LangUzbek   Language = "uz"
	LangRussian Language = "ru"
)

// Localized holds one text in every content language the platform serves.
type Localized struct {
	En string `json:"en"`
	Uz string `json:"uz"`
	Ru string `json:"ru"`
}

// In returns the text for lang, or "" for an unknown language.
func (l Localized) In(lang Language) string {
	switch lang {
	case LangEnglish:
		return l.En
	case LangUzbek:
		return l.Uz
	case LangRussian:
		return l.Ru
	}
	return ""
}

type FileType string

const (
	FileLogo   FileType = "logo"
	FileBanner FileType = "banner"
	FileExtra  FileType = "extra"
	FileMain   FileType = "main"
)

// MaxTourFiles is the number of images a tour can carry.
const MaxTourFiles = 4

type TourFile struct {
	Type   FileType `json:"type"`
	URL    string   `json:"url"`
	Name   string   `json:"name"`
	Size   int64    `json:"size"`
	IsMain bool     `json:"isMain,omitempty"`
}

type RouteStop struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Include struct {
	Title    Localized `json:"title"`
	Included bool      `json:"included"`
}

// Tour is the payload of the tour create and update endpoints.
type Tour struct {
	Title       Localized   `json:"title"`
	Description Localized   `json:"description"`
	Status      int         `json:"status"`
	Location    int         `json:"location"`
	Price       float64     `json:"price"`
	SalePrice   float64     `json:"sale_price"`
	Duration    string      `json:"duration"`
	StartDate   time.Time   `json:"start_date"`
	Seats       int         `json:"seats"`
	Files       []TourFile  `json:"files"`
	Route       []RouteStop `json:"route_json"`
	Includes    []Include   `json:"includes"`
}

// Validate checks the fields an admin has to fill in for lang before a
// tour can be submitted. All problems are reported together.
func (t *Tour) Validate(lang Language) error {
	var fields []string
	if t.Title.In(lang) == "" {
		fields = append(fields, "title")
	}
	if t.Description.In(lang) == "" {
		fields = append(fields, "description")
	}
	if len(t.Files) == 0 || len(t.Files) > MaxTourFiles {
		fields = append(fields, "files")
	}
	if !t.hasInclude(lang) {
		fields = append(fields, "includes")
	}
	if t.Price <= 0 {
		fields = append(fields, "price")
	}
	if t.Seats <= 0 {
		fields = append(fields, "seats")
	}
	if t.StartDate.IsZero() {
		fields = append(fields, "start_date")
	}
	if len(fields) > 0 {
		return &ValidationError{Lang: lang, Fields: fields}
	}
	return nil
}

func (t *Tour) hasInclude(lang Language) bool {
	for _, inc := range t.Includes {
		if inc.Included && inc.Title.In(lang) != "" {
			return true
		}
	}
	return false
}

// SetMainFile marks the file at index as the main image and clears the flag
// on every other file.
func (t *Tour) SetMainFile(index int) {
	for i := range t.Files {
		t.Files[i].IsMain = i == index
	}
}

// AddFile appends an uploaded file. The first file becomes the main image.
// Files beyond MaxTourFiles are dropped.
func (t *Tour) AddFile(f UploadedFile) {
	if len(t.Files) >= MaxTourFiles {
		return
	}
	file := TourFile{Type: FileExtra, URL: f.URL, Name: f.Name, Size: f.Size}
	if len(t.Files) == 0 {
		file.Type = FileMain
		file.IsMain = true
	}
	t.Files = append(t.Files, file)
}
