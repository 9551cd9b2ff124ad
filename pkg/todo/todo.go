package todo

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Namespace is the flag-store namespace that holds todo collections.
// Keys inside the namespace are todo IDs; values are ToDo records.
const Namespace = "todo"

// ToDo is a single task record owned by one user. ID and UserID are assigned
// at creation time and never change; Label and Done are mutable.
type ToDo struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Label  string `json:"label"`
	Done   bool   `json:"isDone"`
}

// Draft is the caller-supplied portion of a new todo. Identity fields are
// always assigned by the store, never accepted from the caller.
type Draft struct {
	Label string `json:"label" validate:"required,max=500"`
	Done  bool   `json:"isDone"`
}

var validate = validator.New()

// Validate checks the draft against its field constraints.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid todo draft: %w", err)
	}
	return nil
}
