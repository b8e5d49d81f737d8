package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "jurisearch/pkg/domain-errors"
)

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected DocumentType
	}{
		{name: "valid cpf digits", input: "11144477735", expected: DocumentCPF},
		{name: "valid cpf punctuated", input: "111.444.777-35", expected: DocumentCPF},
		{name: "repeated cpf digits", input: "11111111111", expected: DocumentInvalid},
		{name: "cpf wrong check digit", input: "11144477736", expected: DocumentInvalid},
		{name: "cpf first check digit wrong", input: "12345678901", expected: DocumentInvalid},
		{name: "valid cnpj digits", input: "11222333000181", expected: DocumentCNPJ},
		{name: "valid cnpj punctuated", input: "11.222.333/0001-81", expected: DocumentCNPJ},
		{name: "repeated cnpj digits", input: "00000000000000", expected: DocumentInvalid},
		{name: "cnpj wrong check digit", input: "11222333000182", expected: DocumentInvalid},
		{name: "empty", input: "", expected: DocumentInvalid},
		{name: "letters only", input: "abc", expected: DocumentInvalid},
		{name: "wrong length", input: "123456789", expected: DocumentInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDocumentType(tt.input))
		})
	}
}

func TestParseDocument(t *testing.T) {
	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseDocument("  ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid check digits", func(t *testing.T) {
		_, err := ParseDocument("111.444.777-00")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("returns digits and type", func(t *testing.T) {
		doc, err := ParseDocument("11.222.333/0001-81")
		require.NoError(t, err)
		assert.Equal(t, "11222333000181", doc.Number)
		assert.Equal(t, DocumentCNPJ, doc.Type)
		assert.Equal(t, "11.222.333/0001-81", doc.String())
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "111.444.777-35", FormatCPF("11144477735"))
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11222333000181"))
	assert.Equal(t, "123", FormatCPF("1-2-3"), "wrong length passes digits through")
	assert.Equal(t, "abc", FormatDocument("abc"))
	assert.Equal(t, "111.444.777-35", FormatDocument("11144477735"))
}

func TestFormatProcessNumber(t *testing.T) {
	assert.Equal(t, "0001234-56.2023.4.01.3400", FormatProcessNumber("00012345620234013400"))
	assert.Equal(t, "123", FormatProcessNumber("123"))
	assert.Equal(t, "0001234562023401340X", FormatProcessNumber("0001234562023401340X"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "10/01/2023", FormatDate("2023-01-10T00:00:00.000Z"))
	assert.Equal(t, "10/01/2023", FormatDate("20230110000000"))
	assert.Equal(t, "10/01/2023 14:30", FormatDateTime("2023-01-10T14:30:00Z"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "ação...", Truncate("ação civil", 4))
}
