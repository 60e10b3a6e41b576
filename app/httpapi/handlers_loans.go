package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/lendbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/returnbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/listloans"
)

func (s *Server) listLoans(c *fiber.Ctx) error {
	query, err := listloans.BuildQuery(c.Query("status"), c.Query("q"), s.now())
	if err != nil {
		return err
	}

	result, err := s.handlers.ListLoans.Handle(c.UserContext(), query)
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: result.Loans})
}

func (s *Server) lendBookCopy(c *fiber.Ctx) error {
	var request lendRequest
	if err := s.bind(c, &request); err != nil {
		return err
	}

	bookID, err := uuid.Parse(request.BookID)
	if err != nil {
		return describeValidation(err)
	}

	loanID, err := uuid.NewV7()
	if err != nil {
		return err
	}

	command := lendbookcopy.BuildCommand(loanID, bookID, request.Borrower, request.DueDate, s.now())

	result, err := s.handlers.LendBookCopy.Handle(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dataBody{OK: true, Data: result.Value})
}

func (s *Server) returnBookCopy(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := s.handlers.ReturnBookCopy.Handle(c.UserContext(), returnbookcopy.BuildCommand(id, s.now()))
	if err != nil {
		return err
	}

	return c.JSON(dataBody{OK: true, Data: result.Value})
}
