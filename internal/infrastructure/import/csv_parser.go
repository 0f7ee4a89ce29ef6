// Package csvimport reads spreadsheet exports into header-keyed rows for
// bulk lead capture.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultMaxRows caps the data rows of one file
const DefaultMaxRows = 5000

// Parser reads a CSV file whose first line names the columns
type Parser struct {
	delimiter rune
	charset   string
	maxRows   int
	headers   []string
	headerMap map[string]int
	totalRows int
	reader    *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithCharset decodes the file from a single-byte charset such as
// windows-1252. Empty or "utf-8" reads the file as UTF-8.
func WithCharset(name string) ParserOption {
	return func(p *Parser) {
		p.charset = name
	}
}

// WithMaxRows caps the number of data rows; <= 0 keeps DefaultMaxRows
func WithMaxRows(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxRows = n
		}
	}
}

var charsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
}

// SupportedCharset reports whether name can be passed to WithCharset
func SupportedCharset(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return true
	}
	_, ok := charsets[name]
	return ok
}

// NewParser reads and normalizes the header line of r
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		maxRows:   DefaultMaxRows,
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	source, err := p.decode(r)
	if err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(source)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// decode strips a UTF-8 BOM or transcodes a legacy charset to UTF-8
func (p *Parser) decode(r io.Reader) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(p.charset))
	if enc, ok := charsets[name]; ok {
		buf := bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))
		if _, err := buf.Peek(1); err == io.EOF {
			return nil, ErrEmptyFile
		}
		return buf, nil
	}
	if name != "" && name != "utf-8" && name != "utf8" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCharset, p.charset)
	}

	buf := bufio.NewReader(r)
	bom, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buf.Discard(3)
	}

	const checkSize = 4096
	head, err := buf.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head, len(head) == checkSize) {
		return nil, ErrInvalidEncoding
	}
	return buf, nil
}

// validUTF8Prefix tolerates a rune cut off at the end of a partial read
func validUTF8Prefix(b []byte, partial bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !partial {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}

func (p *Parser) parseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := p.headerMap[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateHeader, name)
		}
		p.headers[i] = name
		p.headerMap[name] = i
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// NormalizeHeader lower-cases a column name and joins words with underscores,
// so "First Name" and "first-name" both read as first_name
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
}

// Headers returns the normalized column names; blank columns are ""
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader checks if a column exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// Row is one data line keyed by normalized column name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the trimmed value of a column, "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. It returns io.EOF at the end of the file.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("malformed CSV at line %d: %w", parseErr.StartLine, err)
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	line, _ := p.reader.FieldPos(0)
	row := &Row{
		LineNumber: line,
		Data:       make(map[string]string, len(p.headerMap)),
	}
	for i, header := range p.headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAll reads the remaining data rows, skipping blank lines
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		p.totalRows++
		if p.totalRows > p.maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.maxRows)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// TotalRows returns the number of non-blank data rows read by ReadAll
func (p *Parser) TotalRows() int {
	return p.totalRows
}
