package core

// Category classifies payments. Deleting a category never cascades to
// the payments that reference it; they are detached first (see
// services.CategoryService).
type Category struct {
	ID          int64
	Name        string
	Note        string
	RequireNote bool
}

func NewCategory(name, note string, requireNote bool) *Category {
	return &Category{Name: name, Note: note, RequireNote: requireNote}
}
