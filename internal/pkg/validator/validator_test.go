package validator

import "testing"

type sampleRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Role     string `json:"role" validate:"required,self_role"`
	Category string `json:"category" validate:"required,category"`
	Method   string `json:"method" validate:"omitempty,handover_method"`
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	req := sampleRequest{Username: "kim.minsu", Role: "LOSER", Category: "WALLET", Method: "MEET"}
	if errs := Validate(&req); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	req := sampleRequest{Username: "bad name!", Role: "ADMIN", Category: "PHONE", Method: "DRONE"}
	errs := Validate(&req)

	for _, field := range []string{"username", "role", "category", "method"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error for %q, got %v", field, errs)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	errs := Validate(&sampleRequest{})
	if errs["username"] != "This field is required" {
		t.Fatalf("unexpected username message: %q", errs["username"])
	}
	if _, ok := errs["method"]; ok {
		t.Fatalf("optional method must not be reported when empty")
	}
}
