package addbook

import "github.com/google/uuid"

const commandType = "AddBook"

// Command represents the intent to add a book to the catalog.
// Nil optional fields stay empty, a nil CopiesTotal means one copy.
type Command struct {
	BookID      uuid.UUID
	Title       string
	Author      *string
	Category    *string
	Pages       *int
	CopiesTotal *int
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, title string, author, category *string, pages, copiesTotal *int) Command {
	return Command{
		BookID:      bookID,
		Title:       title,
		Author:      author,
		Category:    category,
		Pages:       pages,
		CopiesTotal: copiesTotal,
	}
}
