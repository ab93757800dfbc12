package domain_test

import (
	"testing"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

func TestCustomerValidateInvariants(t *testing.T) {
	customer := domain.Customer{Name: "Alice", Email: "alice@example.com"}
	if errs := customer.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	customer.Name = ""
	customer.Email = ""
	errs := customer.ValidateInvariants()
	if len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
}
