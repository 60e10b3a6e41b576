package exportcatalog

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeCSV  = "text/csv; charset=utf-8"
	filenameDate    = "2006-01-02"
)

var csvHeader = []string{"title", "author", "category", "pages", "copies_total", "copies_available"}

// exportedBook is a Book without its normalized title.
type exportedBook struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          *string   `json:"author"`
	Category        *string   `json:"category"`
	Pages           *int      `json:"pages"`
	CopiesTotal     int       `json:"copies_total"`
	CopiesAvailable int       `json:"copies_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type booksDocument struct {
	OK         bool           `json:"ok"`
	ExportedAt time.Time      `json:"exported_at"`
	Total      int            `json:"total"`
	Data       []exportedBook `json:"data"`
}

type loansDocument struct {
	OK   bool               `json:"ok"`
	Data []circulation.Loan `json:"data"`
}

func booksFilename(exportedAt time.Time, extension string) string {
	return "books-export-" + exportedAt.UTC().Format(filenameDate) + "." + extension
}

// RenderBooksJSON renders the books as an indented JSON document.
func RenderBooksJSON(books []circulation.Book, exportedAt time.Time) (Export, error) {
	document := booksDocument{
		OK:         true,
		ExportedAt: exportedAt.UTC(),
		Total:      len(books),
		Data:       make([]exportedBook, 0, len(books)),
	}

	for _, book := range books {
		document.Data = append(document.Data, exportedBook{
			ID:              book.ID,
			Title:           book.Title,
			Author:          book.Author,
			Category:        book.Category,
			Pages:           book.Pages,
			CopiesTotal:     book.CopiesTotal,
			CopiesAvailable: book.CopiesAvailable,
			CreatedAt:       book.CreatedAt,
			UpdatedAt:       book.UpdatedAt,
		})
	}

	body, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return Export{}, err
	}

	return Export{
		ContentType: contentTypeJSON,
		Filename:    booksFilename(exportedAt, "json"),
		Body:        body,
		Rows:        len(books),
	}, nil
}

// RenderBooksCSV renders the books as CSV with a header row. Absent values are empty fields.
func RenderBooksCSV(books []circulation.Book, exportedAt time.Time) (Export, error) {
	var buffer bytes.Buffer

	writer := csv.NewWriter(&buffer)
	if err := writer.Write(csvHeader); err != nil {
		return Export{}, err
	}

	for _, book := range books {
		record := []string{
			book.Title,
			textOrEmpty(book.Author),
			textOrEmpty(book.Category),
			intOrEmpty(book.Pages),
			strconv.Itoa(book.CopiesTotal),
			strconv.Itoa(book.CopiesAvailable),
		}

		if err := writer.Write(record); err != nil {
			return Export{}, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return Export{}, err
	}

	return Export{
		ContentType: contentTypeCSV,
		Filename:    booksFilename(exportedAt, "csv"),
		Body:        buffer.Bytes(),
		Rows:        len(books),
	}, nil
}

// RenderLoansJSON renders the loans, newest first.
func RenderLoansJSON(loans []circulation.Loan, exportedAt time.Time) (Export, error) {
	newestFirst := make([]circulation.Loan, len(loans))
	for i, loan := range loans {
		newestFirst[len(loans)-1-i] = loan
	}

	body, err := json.MarshalIndent(loansDocument{OK: true, Data: newestFirst}, "", "  ")
	if err != nil {
		return Export{}, err
	}

	return Export{
		ContentType: contentTypeJSON,
		Filename:    "loans-export-" + exportedAt.UTC().Format(filenameDate) + ".json",
		Body:        body,
		Rows:        len(loans),
	}, nil
}

func textOrEmpty(text *string) string {
	if text == nil {
		return ""
	}

	return *text
}

func intOrEmpty(number *int) string {
	if number == nil {
		return ""
	}

	return strconv.Itoa(*number)
}
