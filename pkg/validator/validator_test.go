package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=18"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Name:  "alice",
		Email: "alice@example.com",
		Age:   20,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Name:  "",
		Email: "invalid",
		Age:   10,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "email" {
			foundEmail = true
		}
	}

	if !foundEmail {
		t.Fatal("expected email field to be present in validation errors")
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("lowercase_only", func(fl validator.FieldLevel) bool {
		return strings.ToLower(fl.Field().String()) == fl.Field().String()
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"lowercase_only"`
	}

	if err := ValidateStruct(custom{Value: "lower"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "Upper"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}

func TestStrongPasswordRule(t *testing.T) {
	type registration struct {
		Password string `json:"password" validate:"required,strongpassword"`
	}

	cases := map[string]bool{
		"Passw0rd":  true,
		"passw0rd":  false,
		"Password":  false,
		"Pa0":       false,
		"ÄBCDEFG1":  true,
		"12345678A": true,
	}
	for password, valid := range cases {
		err := ValidateStruct(registration{Password: password})
		if valid && err != nil {
			t.Fatalf("expected %q to be accepted: %v", password, err)
		}
		if !valid {
			vErrs, ok := err.(ValidationErrors)
			if !ok || len(vErrs) != 1 || vErrs[0].Tag != "strongpassword" || vErrs[0].Field != "password" {
				t.Fatalf("expected strongpassword failure for %q, got %v", password, err)
			}
		}
	}
}
