package report

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
)

// Format names an export format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// DefaultTitle is the heading used when none is configured
const DefaultTitle = "Risk Analysis"

// AllFormats returns the supported export formats
func AllFormats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatYAML}
}

// ParseFormat parses a format name case-insensitively; "md" and "yml" are
// accepted as aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", goerr.New("unsupported report format", goerr.V("format", s))
	}
}

// Extension returns the file extension for f, without the dot
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "md"
	}
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/markdown; charset=utf-8"
	}
}

type options struct {
	title string
	now   func() time.Time
	loc   *time.Location
}

type Option func(*options)

// WithTitle sets the report heading
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
	}
}

// WithClock sets the time source of the generation timestamp
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation sets the time zone dates are rendered in
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		title: DefaultTitle,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the formatter for format
func New(format Format, opts ...Option) (interfaces.ReportFormatter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdown(opts...), nil
	case FormatJSON:
		return NewJSON(opts...), nil
	case FormatYAML:
		return NewYAML(opts...), nil
	default:
		return nil, goerr.New("unsupported report format", goerr.V("format", format))
	}
}

// FileName returns the download name of a report generated at t
func FileName(f Format, t time.Time) string {
	return "risk-analysis-" + t.Format(time.DateOnly) + "." + f.Extension()
}
