package resource

import (
	"strings"
)

type Category string

const (
	CategoryDocument     Category = "DOCUMENT"
	CategoryPresentation Category = "PRESENTATION"
	CategoryImage        Category = "IMAGE"
	CategoryCode         Category = "CODE"
	CategoryVideo        Category = "VIDEO"
	CategoryAudio        Category = "AUDIO"
	CategoryArchive      Category = "ARCHIVE"
	CategoryOther        Category = "OTHER"
)

// Categories lists every category in lookup order; OTHER has no extensions.
var Categories = []Category{
	CategoryDocument,
	CategoryPresentation,
	CategoryImage,
	CategoryCode,
	CategoryVideo,
	CategoryAudio,
	CategoryArchive,
	CategoryOther,
}

var fileExtensions = map[Category][]string{
	CategoryDocument:     {"pdf", "doc", "docx", "txt", "rtf", "odt"},
	CategoryPresentation: {"ppt", "pptx", "odp"},
	CategoryImage:        {"jpg", "jpeg", "png", "gif", "svg", "webp"},
	CategoryCode:         {"py", "js", "java", "cpp", "c", "html", "css", "php"},
	CategoryVideo:        {"mp4", "mov", "avi", "mkv", "webm"},
	CategoryAudio:        {"mp3", "wav", "ogg", "m4a"},
	CategoryArchive:      {"zip", "rar", "7z", "tar", "gz"},
}

// Extension returns the lower-cased text after the final '.', or "".
func Extension(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// Classify maps a file name to its category by extension, falling back to OTHER.
func Classify(filename string) Category {
	ext := Extension(filename)
	if ext == "" {
		return CategoryOther
	}
	for _, c := range Categories {
		for _, e := range fileExtensions[c] {
			if e == ext {
				return c
			}
		}
	}
	return CategoryOther
}

// Matches reports whether filename may be stored under category c.
// OTHER accepts exactly the names no other category claims.
func Matches(c Category, filename string) bool {
	return Classify(filename) == c
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Extensions returns a copy of the extension table keyed by category.
func Extensions() map[Category][]string {
	out := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		out[c] = append([]string{}, fileExtensions[c]...)
	}
	return out
}
