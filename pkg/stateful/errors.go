package stateful

import "fmt"

// NotFoundError indicates a record or collection does not exist.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("collection %q not found", e.Collection)
	}
	return fmt.Sprintf("record %q not found in %q", e.ID, e.Collection)
}

// ConflictError indicates a create collided with an existing record id.
type ConflictError struct {
	Collection string
	ID         string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %q already exists in %q", e.ID, e.Collection)
}
