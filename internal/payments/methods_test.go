package payments_test

import (
	"testing"

	"storefront/internal/payments"
)

func TestValidateAccount(t *testing.T) {
	cases := []struct {
		method  string
		account string
		ok      bool
	}{
		{"visa", "4111111111111", true},
		{"visa", "4111111111111111", true},
		{"visa", "411111111111", false},
		{"visa", "41111111111111111", false},
		{"visa", "4111-1111-1111", false},
		{"mastercard", "5500000000000004", true},
		{"mastercard", "550000000000004", false},
		{"rocket", "0171234567", true},
		{"rocket", "01712345678901234", false},
		{"bkash", "01712345678", true},
		{"bkash", "0171234567", false},
		{"upay", "01812345678", true},
		{"nogod", "01912345678", true},
		{"nogod", "019123456789", false},
	}

	for _, tc := range cases {
		err := payments.ValidateAccount(tc.method, tc.account)
		if tc.ok && err != nil {
			t.Errorf("%s %s: expected valid, got %v", tc.method, tc.account, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s %s: expected rejection", tc.method, tc.account)
		}
	}
}

func TestLookupUnknownMethod(t *testing.T) {
	if _, err := payments.Lookup("paypal"); err != payments.ErrUnknownMethod {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if err := payments.ValidateAccount("paypal", "123"); err != payments.ErrUnknownMethod {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestKeysStable(t *testing.T) {
	a := payments.Keys()
	b := payments.Keys()
	if len(a) != 6 {
		t.Fatalf("expected 6 methods, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("keys order unstable: %v vs %v", a, b)
		}
	}
}
