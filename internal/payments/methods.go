package payments

import (
	"errors"
	"regexp"
	"sort"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrBadAccount    = errors.New("invalid account number for method")
)

// Method описывает способ оплаты: ключ в URL, подпись, формат номера счёта.
type Method struct {
	Key         string
	DisplayName string
	ImageKey    string
	Pattern     *regexp.Regexp
	Hint        string
}

var Methods = map[string]Method{
	"visa": {
		Key:         "visa",
		DisplayName: "Visa",
		ImageKey:    "visa",
		Pattern:     regexp.MustCompile(`^\d{13,16}$`),
		Hint:        "13-16 digit card number",
	},
	"mastercard": {
		Key:         "mastercard",
		DisplayName: "Mastercard",
		ImageKey:    "mastercard",
		Pattern:     regexp.MustCompile(`^\d{16}$`),
		Hint:        "16 digit card number",
	},
	"rocket": {
		Key:         "rocket",
		DisplayName: "Rocket",
		ImageKey:    "rocket",
		Pattern:     regexp.MustCompile(`^\d{10,16}$`),
		Hint:        "10-16 digit account number",
	},
	"bkash": {
		Key:         "bkash",
		DisplayName: "bKash",
		ImageKey:    "bkash",
		Pattern:     regexp.MustCompile(`^\d{11}$`),
		Hint:        "11 digit mobile number",
	},
	"upay": {
		Key:         "upay",
		DisplayName: "Upay",
		ImageKey:    "upay",
		Pattern:     regexp.MustCompile(`^\d{11}$`),
		Hint:        "11 digit mobile number",
	},
	"nogod": {
		Key:         "nogod",
		DisplayName: "Nagad",
		ImageKey:    "nogod",
		Pattern:     regexp.MustCompile(`^\d{11}$`),
		Hint:        "11 digit mobile number",
	},
}

// Lookup возвращает описание метода по ключу.
func Lookup(key string) (Method, error) {
	m, ok := Methods[key]
	if !ok {
		return Method{}, ErrUnknownMethod
	}
	return m, nil
}

// ValidateAccount проверяет номер счёта по шаблону метода.
func ValidateAccount(key, account string) error {
	m, err := Lookup(key)
	if err != nil {
		return err
	}
	if !m.Pattern.MatchString(account) {
		return ErrBadAccount
	}
	return nil
}

// Keys перечисляет методы в устойчивом порядке.
func Keys() []string {
	out := make([]string, 0, len(Methods))
	for k := range Methods {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
