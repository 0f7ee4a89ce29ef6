package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("Valid UTF-8 CSV", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("first_name,last_name\nAda,Lovelace"))

		require.NoError(t, err)
		assert.Equal(t, []string{"first_name", "last_name"}, parser.Headers())
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("\xEF\xBB\xBFemail,city\nada@example.com,London"))

		require.NoError(t, err)
		assert.Equal(t, "email", parser.Headers()[0])
	})

	t.Run("Headers are normalized", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader(" First Name ,Last-Name,COMPANY_NAME,Postal  Code\nA,B,C,D"))

		require.NoError(t, err)
		assert.Equal(t, []string{"first_name", "last_name", "company_name", "postal_code"}, parser.Headers())
		assert.True(t, parser.HasHeader("postal_code"))
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader(""))

		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Nil(t, parser)
	})

	t.Run("Invalid UTF-8 is rejected", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("city\nM\xfcnchen"))

		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Duplicate columns are rejected", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("email,Email\na,b"))

		assert.ErrorIs(t, err, ErrDuplicateHeader)
	})

	t.Run("Blank header is rejected", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(" , \nAda,Lovelace"))

		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("first_name;city\nAda;London"), WithDelimiter(';'))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "London", rows[0].Get("city"))
	})
}

func TestNewParser_Charset(t *testing.T) {
	t.Run("windows-1252 is decoded", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("city,company_name\nM\xfcnchen,Caf\xe9 \x80uro"), WithCharset("Windows-1252"))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "München", rows[0].Get("city"))
		assert.Equal(t, "Café €uro", rows[0].Get("company_name"))
	})

	t.Run("latin1 alias", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("city\nS\xe3o Paulo"), WithCharset("latin1"))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "São Paulo", rows[0].Get("city"))
	})

	t.Run("unknown charset", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("city\nParis"), WithCharset("ebcdic"))

		assert.ErrorIs(t, err, ErrUnsupportedCharset)
	})

	t.Run("supported names", func(t *testing.T) {
		assert.True(t, SupportedCharset(""))
		assert.True(t, SupportedCharset("UTF-8"))
		assert.True(t, SupportedCharset("iso-8859-15"))
		assert.False(t, SupportedCharset("shift_jis"))
	})
}

func TestParser_ReadAll(t *testing.T) {
	t.Run("rows keyed by header with line numbers", func(t *testing.T) {
		csv := "first_name,last_name,email\n" +
			"Ada,Lovelace,ada@example.com\n" +
			"\n" +
			",,\n" +
			"Grace,Hopper\n"
		parser, err := NewParser(strings.NewReader(csv))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 2, rows[0].LineNumber)
		assert.Equal(t, "ada@example.com", rows[0].Get("email"))
		assert.Equal(t, 5, rows[1].LineNumber)
		assert.Equal(t, "Hopper", rows[1].Get("last_name"))
		assert.Empty(t, rows[1].Get("email"))
		assert.Equal(t, 2, parser.TotalRows())
	})

	t.Run("quoted multiline values keep the start line", func(t *testing.T) {
		csv := "first_name,description\n" +
			"Ada,\"met at\nthe conference\"\n" +
			"Grace,follow up\n"
		parser, err := NewParser(strings.NewReader(csv))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "met at\nthe conference", rows[0].Get("description"))
		assert.Equal(t, 4, rows[1].LineNumber)
	})

	t.Run("values are trimmed", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("email\n  ada@example.com  "))
		require.NoError(t, err)

		rows, err := parser.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", rows[0].Get("email"))
	})

	t.Run("header only", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("first_name,last_name\n"))
		require.NoError(t, err)

		_, err = parser.ReadAll()
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("row limit", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("first_name\nA\nB\nC"), WithMaxRows(2))
		require.NoError(t, err)

		_, err = parser.ReadAll()
		assert.ErrorIs(t, err, ErrTooManyRows)
	})
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"First Name":      "first_name",
		"first-name":      "first_name",
		"  EMAIL  ":       "email",
		"estimated_value": "estimated_value",
		"Postal__Code":    "postal_code",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	for i := range 3 {
		ec.Add(RowError{Row: i + 2, Column: "email", Code: "INVALID_EMAIL", Message: "Must be a valid email"})
	}

	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, 3, ec.TotalCount())
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, "row 2, column 'email': Must be a valid email", ec.Errors()[0].Error())
	assert.Equal(t, "row 7: bad", RowError{Row: 7, Message: "bad"}.Error())
}
