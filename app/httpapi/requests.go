package httpapi

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	User string `json:"user" validate:"required"`
	Pass string `json:"pass" validate:"required"`
}

type addBookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      *string `json:"author"`
	Category    *string `json:"category"`
	Pages       *int    `json:"pages" validate:"omitnil,gt=0"`
	CopiesTotal *int    `json:"copies_total" validate:"omitnil,gte=1"`
}

type editBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Category    *string `json:"category"`
	Pages       *int    `json:"pages" validate:"omitnil,gt=0"`
	CopiesTotal *int    `json:"copies_total" validate:"omitnil,gte=1"`
}

type changeCopiesRequest struct {
	CopiesTotal int `json:"copies_total" validate:"gte=1"`
}

type lendRequest struct {
	BookID   string `json:"book_id" validate:"required,uuid"`
	Borrower string `json:"borrower" validate:"required"`
	DueDate  string `json:"due_date" validate:"required"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return validate
}

// bind decodes the JSON body into request and validates it.
func (s *Server) bind(c *fiber.Ctx, request any) error {
	if err := c.BodyParser(request); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequestBody, err.Error())
	}

	if err := s.validate.Struct(request); err != nil {
		return describeValidation(err)
	}

	return nil
}
