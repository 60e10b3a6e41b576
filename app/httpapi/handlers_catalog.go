package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/changecopiestotal"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/deletebook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/editbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/getbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/searchbooks"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

type dataBody struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type deletedBody struct {
	OK bool      `json:"ok"`
	ID uuid.UUID `json:"id"`
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, circulation.ErrInvalidID
	}

	return id, nil
}

func (s *Server) searchBooks(c *fiber.Ctx) error {
	result, err := s.handlers.SearchBooks.Handle(c.UserContext(), searchbooks.BuildQuery(c.Query("q")))
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: result.Books})
}

func (s *Server) getBook(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	book, err := s.handlers.GetBook.Handle(c.UserContext(), getbook.BuildQuery(id))
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: book})
}

func (s *Server) addBook(c *fiber.Ctx) error {
	var request addBookRequest
	if err := s.bind(c, &request); err != nil {
		return err
	}

	bookID, err := uuid.NewV7()
	if err != nil {
		return err
	}

	command := addbook.BuildCommand(bookID, request.Title, request.Author, request.Category, request.Pages, request.CopiesTotal)

	result, err := s.handlers.AddBook.Handle(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dataBody{OK: true, Data: result.Value})
}

func (s *Server) editBook(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request editBookRequest
	if err := s.bind(c, &request); err != nil {
		return err
	}

	command := editbook.BuildCommand(id, request.Title, request.Author, request.Category, request.Pages, request.CopiesTotal)

	result, err := s.handlers.EditBook.Handle(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: result.Value})
}

func (s *Server) changeCopiesTotal(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request changeCopiesRequest
	if err := s.bind(c, &request); err != nil {
		return err
	}

	result, err := s.handlers.ChangeCopiesTotal.Handle(c.UserContext(), changecopiestotal.BuildCommand(id, request.CopiesTotal))
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: result.Value})
}

func (s *Server) deleteBook(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := s.handlers.DeleteBook.Handle(c.UserContext(), deletebook.BuildCommand(id))
	if err != nil {
		return err
	}

	return c.JSON(deletedBody{OK: true, ID: result.Value})
}
