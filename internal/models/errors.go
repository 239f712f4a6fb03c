package models

import (
	"fmt"
	"strings"
)

// ValidationError une ou plusieurs règles de champ non respectées
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// InvalidIDError identifiant syntaxiquement invalide
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid id %q", e.ID)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// NoFieldsError aucune donnée à mettre à jour après filtrage
type NoFieldsError struct{}

func (e *NoFieldsError) Error() string {
	return "no updatable fields in payload"
}

// StoreUnavailableError le stockage a échoué. Le message reste générique,
// la cause est accessible via Unwrap.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable"
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors
func NewValidationError(errs []string) error {
	return &ValidationError{Errors: errs}
}

func NewInvalidIDError(id string) error {
	return &InvalidIDError{ID: id}
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func NewNoFieldsError() error {
	return &NoFieldsError{}
}

func NewStoreUnavailableError(op string, err error) error {
	return &StoreUnavailableError{Op: op, Err: err}
}
