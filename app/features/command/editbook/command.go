package editbook

import "github.com/google/uuid"

const commandType = "EditBook"

// Command represents the intent to change some fields of a book. Nil means unchanged.
type Command struct {
	BookID      uuid.UUID
	Title       *string
	Author      *string
	Category    *string
	Pages       *int
	CopiesTotal *int
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, title, author, category *string, pages, copiesTotal *int) Command {
	return Command{
		BookID:      bookID,
		Title:       title,
		Author:      author,
		Category:    category,
		Pages:       pages,
		CopiesTotal: copiesTotal,
	}
}
