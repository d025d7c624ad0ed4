// Package validation provides input validation utilities for engine
// configuration and operator construction. Validators are small reusable
// values so that callers can combine them with CompoundValidator.
package validation

import (
	"fmt"
	"reflect"

	"github.com/paveg/tamarin/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// PositiveValidator validates that a numeric parameter is greater than zero
type PositiveValidator struct {
	value int64
	op    string
	name  string
}

// NewPositiveValidator creates a validator for strictly positive parameters
func NewPositiveValidator(value int64, op, name string) *PositiveValidator {
	return &PositiveValidator{value: value, op: op, name: name}
}

// Validate checks that the value is positive
func (v *PositiveValidator) Validate() error {
	if v.value <= 0 {
		return errors.NewInvalidArgumentError(v.op, fmt.Sprintf("%s must be positive, got %d", v.name, v.value))
	}
	return nil
}

// NonNegativeValidator validates that a numeric parameter is not below zero
type NonNegativeValidator struct {
	value int64
	op    string
	name  string
}

// NewNonNegativeValidator creates a validator for parameters where zero
// carries a meaning (auto-detect, unlimited)
func NewNonNegativeValidator(value int64, op, name string) *NonNegativeValidator {
	return &NonNegativeValidator{value: value, op: op, name: name}
}

// Validate checks that the value is zero or greater
func (v *NonNegativeValidator) Validate() error {
	if v.value < 0 {
		return errors.NewInvalidArgumentError(v.op, fmt.Sprintf("%s must not be negative, got %d", v.name, v.value))
	}
	return nil
}

// KeyTypeValidator validates that two key types can be compared for equality.
// Interface key types are accepted: their dynamic types are only known per
// record.
type KeyTypeValidator struct {
	left  reflect.Type
	right reflect.Type
	op    string
}

// NewKeyTypeValidator creates a validator for join key types
func NewKeyTypeValidator(left, right reflect.Type, op string) *KeyTypeValidator {
	return &KeyTypeValidator{left: left, right: right, op: op}
}

// Validate checks that both key types are comparable and identical
func (v *KeyTypeValidator) Validate() error {
	if v.left == nil || v.right == nil {
		return errors.NewInvalidArgumentError(v.op, "key type must not be nil")
	}
	if !v.left.Comparable() || !v.right.Comparable() {
		return errors.NewJoinKeyTypeMismatchError(v.op, v.left.String(), v.right.String())
	}
	if v.left.Kind() == reflect.Interface || v.right.Kind() == reflect.Interface {
		return nil
	}
	if v.left != v.right {
		return errors.NewJoinKeyTypeMismatchError(v.op, v.left.String(), v.right.String())
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateNonNegative is a convenience function for non-negative parameters
func ValidateNonNegative(value int64, op, name string) error {
	return NewNonNegativeValidator(value, op, name).Validate()
}

// ValidateKeyTypes is a convenience function for join key type validation
func ValidateKeyTypes(left, right reflect.Type, op string) error {
	return NewKeyTypeValidator(left, right, op).Validate()
}
