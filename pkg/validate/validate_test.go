package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/parcelhub/pkg/validate"
)

type color string

func (c color) Valid() bool { return c == "red" || c == "blue" }

type paymentInput struct {
	ParcelID      string  `json:"parcelId"       validate:"required,objectid"`
	Amount        float64 `json:"amount"         validate:"required,gt=0"`
	TransactionID string  `json:"transactionId"  validate:"required"`
	Email         string  `json:"email"          validate:"required,email"`
	Title         string  `json:"title"          validate:"required,max=200"`
	Method        string  `json:"payment_method" validate:"required,in=card,cash"`
	PaymentTime   string  `json:"payment_time"   validate:"nullable,date"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(paymentInput{
		ParcelID:      "64b7f0c2a1b2c3d4e5f60718",
		Amount:        1250,
		TransactionID: "pi_123",
		Email:         "payer@example.com",
		Title:         "Documents",
		Method:        "card",
		PaymentTime:   "", // nullable
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(paymentInput{})
	if !validate.HasErrors(errs) {
		t.Error("expected required errors")
	}
	for _, field := range []string{"parcelId", "amount", "transactionId", "email", "title", "payment_method"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	if _, ok := errs["payment_time"]; ok {
		t.Error("payment_time is nullable")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	errs := validate.Struct(in{Email: "not-an-email"})
	if _, ok := errs["email"]; !ok {
		t.Error("expected email validation error")
	}
	errs = validate.Struct(in{Email: "valid@example.com"})
	if validate.HasErrors(errs) {
		t.Errorf("expected valid email to pass, got: %v", errs)
	}
}

func TestObjectIDRule(t *testing.T) {
	type in struct {
		ID string `json:"id" validate:"required,objectid"`
	}
	if errs := validate.Struct(in{ID: "not-an-id"}); !validate.HasErrors(errs) {
		t.Error("expected malformed id to fail")
	}
	if errs := validate.Struct(in{ID: "64b7f0c2a1b2c3d4e5f60718"}); validate.HasErrors(errs) {
		t.Errorf("expected hex id to pass: %v", errs)
	}
}

func TestEnumRule(t *testing.T) {
	type in struct {
		Color color `json:"color" validate:"required,enum"`
	}
	if errs := validate.Struct(in{Color: "green"}); !validate.HasErrors(errs) {
		t.Error("expected unknown enum value to fail")
	}
	if errs := validate.Struct(in{Color: "red"}); validate.HasErrors(errs) {
		t.Errorf("expected red to pass: %v", errs)
	}
}

func TestNumericBounds(t *testing.T) {
	type in struct {
		Age int `json:"age" validate:"required,gte=18,max=120"`
	}
	if errs := validate.Struct(in{Age: 15}); !validate.HasErrors(errs) {
		t.Error("expected age < 18 to fail")
	}
	if errs := validate.Struct(in{Age: 121}); !validate.HasErrors(errs) {
		t.Error("expected age > 120 to fail")
	}
	if errs := validate.Struct(in{Age: 25}); validate.HasErrors(errs) {
		t.Errorf("expected age 25 to pass, got: %v", errs)
	}
}

func TestGreaterThan(t *testing.T) {
	type in struct {
		Amount int64 `json:"amount" validate:"gt=0"`
	}
	if errs := validate.Struct(in{Amount: -5}); !validate.HasErrors(errs) {
		t.Error("expected negative amount to fail")
	}
	if errs := validate.Struct(in{Amount: 1}); validate.HasErrors(errs) {
		t.Errorf("expected 1 to pass: %v", errs)
	}
}

func TestInRule(t *testing.T) {
	type in struct {
		Role string `json:"role" validate:"required,in=admin,user,rider"`
	}
	if errs := validate.Struct(in{Role: "superadmin"}); !validate.HasErrors(errs) {
		t.Error("expected invalid role to fail")
	}
	if errs := validate.Struct(in{Role: "rider"}); validate.HasErrors(errs) {
		t.Errorf("expected rider to pass: %v", errs)
	}
}

func TestInRuleFollowedByOtherRule(t *testing.T) {
	type in struct {
		Status string `json:"status" validate:"in=a,b,max=1"`
	}
	if errs := validate.Struct(in{Status: "b"}); validate.HasErrors(errs) {
		t.Errorf("expected b to pass: %v", errs)
	}
}

func TestNullableSkipsRules(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"nullable,email"`
	}
	if errs := validate.Struct(in{Email: ""}); validate.HasErrors(errs) {
		t.Errorf("expected empty nullable to pass: %v", errs)
	}
	if errs := validate.Struct(in{Email: "nope"}); !validate.HasErrors(errs) {
		t.Error("expected invalid email to fail")
	}
}

func TestDateRule(t *testing.T) {
	for _, s := range []string{"2024-03-01", "2024-03-01 10:20:30", "2024-03-01T10:20:30Z"} {
		if _, err := validate.ParseDate(s); err != nil {
			t.Errorf("expected %q to parse: %v", s, err)
		}
	}
	if _, err := validate.ParseDate("yesterday"); err == nil {
		t.Error("expected free text to fail")
	}
}

func TestFirstIsDeterministic(t *testing.T) {
	errs := map[string]string{"title": "t", "amount": "a", "email": "e"}
	if got := validate.First(errs); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
	if got := validate.First(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
