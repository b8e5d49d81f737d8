package domain

import (
	"strings"

	dErrors "jurisearch/pkg/domain-errors"
)

// DocumentType classifies a Brazilian taxpayer document.
type DocumentType string

const (
	DocumentCPF     DocumentType = "CPF"
	DocumentCNPJ    DocumentType = "CNPJ"
	DocumentInvalid DocumentType = "INVALID"
)

const (
	cpfLength  = 11
	cnpjLength = 14
)

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Document is a digit-only CPF or CNPJ that passed check-digit validation.
type Document struct {
	Number string
	Type   DocumentType
}

// String returns the punctuated display form.
func (d Document) String() string {
	return FormatDocument(d.Number)
}

// ParseDocument validates raw user input as a CPF or CNPJ.
func ParseDocument(raw string) (Document, error) {
	digits := StripNonDigits(raw)
	if digits == "" {
		return Document{}, dErrors.New(dErrors.CodeValidation, "document is required")
	}
	t := DetectDocumentType(digits)
	if t == DocumentInvalid {
		return Document{}, dErrors.New(dErrors.CodeValidation, "invalid CPF or CNPJ")
	}
	return Document{Number: digits, Type: t}, nil
}

// StripNonDigits drops every rune outside 0-9.
func StripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DetectDocumentType classifies s after stripping non-digits.
func DetectDocumentType(s string) DocumentType {
	clean := StripNonDigits(s)
	switch {
	case len(clean) == cpfLength && ValidateCPF(clean):
		return DocumentCPF
	case len(clean) == cnpjLength && ValidateCNPJ(clean):
		return DocumentCNPJ
	default:
		return DocumentInvalid
	}
}

// ValidateCPF checks length, repeated digits and both mod-11 check digits.
func ValidateCPF(cpf string) bool {
	clean := StripNonDigits(cpf)
	if len(clean) != cpfLength || repeatedDigits(clean) {
		return false
	}
	first := checkDigit(clean[:9], descendingWeights(10, 9))
	second := checkDigit(clean[:9]+string(rune('0'+first)), descendingWeights(11, 10))
	return int(clean[9]-'0') == first && int(clean[10]-'0') == second
}

// ValidateCNPJ checks length, repeated digits and both mod-11 check digits.
func ValidateCNPJ(cnpj string) bool {
	clean := StripNonDigits(cnpj)
	if len(clean) != cnpjLength || repeatedDigits(clean) {
		return false
	}
	first := checkDigit(clean[:12], cnpjFirstWeights)
	second := checkDigit(clean[:12]+string(rune('0'+first)), cnpjSecondWeights)
	return int(clean[12]-'0') == first && int(clean[13]-'0') == second
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	if rem := sum % 11; rem >= 2 {
		return 11 - rem
	}
	return 0
}

func descendingWeights(start, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = start - i
	}
	return w
}

func repeatedDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// FormatCPF renders NNN.NNN.NNN-NN. Input of the wrong length is returned as digits.
func FormatCPF(cpf string) string {
	clean := StripNonDigits(cpf)
	if len(clean) != cpfLength {
		return clean
	}
	return clean[0:3] + "." + clean[3:6] + "." + clean[6:9] + "-" + clean[9:11]
}

// FormatCNPJ renders NN.NNN.NNN/NNNN-NN. Input of the wrong length is returned as digits.
func FormatCNPJ(cnpj string) string {
	clean := StripNonDigits(cnpj)
	if len(clean) != cnpjLength {
		return clean
	}
	return clean[0:2] + "." + clean[2:5] + "." + clean[5:8] + "/" + clean[8:12] + "-" + clean[12:14]
}

// FormatDocument formats by detected type and leaves invalid input untouched.
func FormatDocument(s string) string {
	switch DetectDocumentType(s) {
	case DocumentCPF:
		return FormatCPF(s)
	case DocumentCNPJ:
		return FormatCNPJ(s)
	default:
		return s
	}
}
