package models

import "testing"

func TestParseAmountDigits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1250", "12.5", false},
		{"5", "0.05", false},
		{"100", "1", false},
		{"0", "0", false},
		{" 1250 ", "12.5", false},
		{"", "", true},
		{"12.50", "", true},
		{"12a", "", true},
		{"-5", "", true},
	}
	for _, tc := range cases {
		got, err := ParseAmountDigits(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAmountDigits(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmountDigits(%q): %v", tc.in, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseAmountDigits(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func validExpense() *Expense {
	e := NewExpense("tenant-1")
	e.Description = "fuel for generator"
	e.Amount, _ = ParseAmountDigits("1250")
	e.PendingImages = []*PendingResource{
		NewPendingResource("local-1", ResourceKindOriginal, ".jpg"),
	}
	return e
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(false); err != nil {
		t.Errorf("valid expense rejected: %v", err)
	}

	e := validExpense()
	e.Description = ""
	if err := e.Validate(false); err == nil {
		t.Error("expected error for missing description")
	}

	e = validExpense()
	e.Amount, _ = ParseAmountDigits("0")
	if err := e.Validate(false); err == nil {
		t.Error("expected error for zero amount")
	}

	e = validExpense()
	e.PendingImages = nil
	if err := e.Validate(false); err == nil {
		t.Error("expected error with no receipt image")
	}

	// A previously committed image satisfies the requirement.
	e.ImageUrls = []string{"https://example.com/receipt.jpg"}
	if err := e.Validate(false); err != nil {
		t.Errorf("remote image should satisfy the check: %v", err)
	}
}

func TestExpenseDocumentAmountIsString(t *testing.T) {
	e := validExpense()
	doc := e.Document()
	if _, ok := doc["amount"].(string); !ok {
		t.Fatalf("amount persisted as %T, want string", doc["amount"])
	}
	if _, ok := doc["pendingImages"]; ok {
		t.Error("pending markers must not reach the document")
	}
}

func TestExpenseFromDocumentLegacyNumberAmount(t *testing.T) {
	e, err := ExpenseFromDocument("x1", map[string]any{
		"tenantId": "tenant-1",
		"amount":   float64(12.5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Amount.String() != "12.5" {
		t.Errorf("amount = %s, want 12.5", e.Amount)
	}

	if _, err := ExpenseFromDocument("x2", map[string]any{"amount": true}); err == nil {
		t.Error("expected error for unsupported amount type")
	}
}

func TestExpenseCloneCarriesStagedBytes(t *testing.T) {
	e := validExpense()
	e.PendingImages[0].Data = []byte("jpeg-bytes")
	c, err := e.Clone()
	if err != nil {
		t.Fatal(err)
	}
	clone := c.(*Expense)
	if string(clone.PendingImages[0].Data) != "jpeg-bytes" {
		t.Error("clone lost staged resource bytes")
	}
	// Clone is independent of the source.
	clone.Description = "changed"
	if e.Description == "changed" {
		t.Error("clone shares state with the source")
	}
}
