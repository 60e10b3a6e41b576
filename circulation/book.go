package circulation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book is a title in the catalog together with its copy counts.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	TitleNorm       string    `json:"title_norm"`
	Author          *string   `json:"author"`
	Category        *string   `json:"category"`
	Pages           *int      `json:"pages"`
	CopiesTotal     int       `json:"copies_total"`
	CopiesAvailable int       `json:"copies_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Copies returns the copy counts of the book.
func (b Book) Copies() CopyCounts {
	return CopyCounts{Total: b.CopiesTotal, Available: b.CopiesAvailable}
}

// NewBook is a validated catalog entry, ready to be inserted.
type NewBook struct {
	ID          uuid.UUID
	Title       string
	TitleNorm   string
	Author      *string
	Category    *string
	Pages       *int
	CopiesTotal int
}

// BuildNewBook validates a catalog entry.
// A nil copiesTotal means one copy. Blank author or category are stored as absent.
func BuildNewBook(
	id uuid.UUID,
	title string,
	author *string,
	category *string,
	pages *int,
	copiesTotal *int,
) (NewBook, error) {

	if id == uuid.Nil {
		return NewBook{}, ErrInvalidID
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return NewBook{}, ErrTitleRequired
	}

	if pages != nil && *pages <= 0 {
		return NewBook{}, ErrPagesNotPositive
	}

	total := 1
	if copiesTotal != nil {
		total = *copiesTotal
	}

	if total < 1 {
		return NewBook{}, ErrCopiesTotalTooSmall
	}

	return NewBook{
		ID:          id,
		Title:       title,
		TitleNorm:   NormalizeTitle(title),
		Author:      trimmedOrNil(author),
		Category:    trimmedOrNil(category),
		Pages:       pages,
		CopiesTotal: total,
	}, nil
}

// TextChange updates an optional text field. Unset keeps the current value, a nil Value clears it.
type TextChange struct {
	Set   bool
	Value *string
}

// ChangeText builds a TextChange from request input: nil keeps, blank clears, anything else is trimmed.
func ChangeText(text *string) TextChange {
	if text == nil {
		return TextChange{}
	}

	return TextChange{Set: true, Value: trimmedOrNil(text)}
}

// BookEdit is a validated partial update of a book. Nil fields keep their current value.
type BookEdit struct {
	Title       *string
	TitleNorm   *string
	Author      TextChange
	Category    TextChange
	Pages       *int
	CopiesTotal *int
}

// BuildBookEdit validates a partial update.
// A provided title must not be blank, a blank author or category clears it.
func BuildBookEdit(
	title *string,
	author *string,
	category *string,
	pages *int,
	copiesTotal *int,
) (BookEdit, error) {

	edit := BookEdit{
		Author:      ChangeText(author),
		Category:    ChangeText(category),
		Pages:       pages,
		CopiesTotal: copiesTotal,
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return BookEdit{}, ErrTitleRequired
		}

		norm := NormalizeTitle(trimmed)
		edit.Title = &trimmed
		edit.TitleNorm = &norm
	}

	if pages != nil && *pages <= 0 {
		return BookEdit{}, ErrPagesNotPositive
	}

	if copiesTotal != nil && *copiesTotal < 1 {
		return BookEdit{}, ErrCopiesTotalTooSmall
	}

	return edit, nil
}

// IsEmpty reports whether the edit changes nothing.
func (e BookEdit) IsEmpty() bool {
	return e.Title == nil && !e.Author.Set && !e.Category.Set && e.Pages == nil && e.CopiesTotal == nil
}

// BookSearch filters the catalog listing.
// Query matches title, author and category case-insensitively; empty lists everything.
type BookSearch struct {
	Query string
}
