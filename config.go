package corerule

import (
	"log/slog"
	"runtime"

	"github.com/coregx/corerule/literal"
	"github.com/coregx/corerule/rule"
)

// Config controls rule compilation and checking.
//
// Example:
//
//	config := corerule.DefaultConfig()
//	config.Workers = 4
//	checker, err := corerule.Compile(groups, nil, config)
type Config struct {
	// Workers is the number of goroutines CheckAll uses.
	// Default: runtime.GOMAXPROCS(0)
	Workers int

	// MaxLiterals limits the literal set a regex token is expanded to before
	// the matcher falls back to a regex.
	// Default: 256
	MaxLiterals int

	// MaxLiteralLen limits the byte length of each expanded literal.
	// Default: 64
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes that are expanded.
	// Default: 10
	MaxClassSize int

	// EnablePrefilter enables required-substring prefilters on regex rules.
	// Default: true
	EnablePrefilter bool

	// MaxRegexSentenceLength makes regex rules skip longer sentences.
	// Default: 2000
	MaxRegexSentenceLength int

	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with the default limits.
func DefaultConfig() Config {
	lit := literal.DefaultConfig()
	return Config{
		Workers:                runtime.GOMAXPROCS(0),
		MaxLiterals:            lit.MaxLiterals,
		MaxLiteralLen:          lit.MaxLiteralLen,
		MaxClassSize:           lit.MaxClassSize,
		EnablePrefilter:        true,
		MaxRegexSentenceLength: rule.DefaultMaxRegexSentenceLength,
	}
}

// Validate checks that every parameter is in range.
//
// Valid ranges:
//   - Workers: 1 to 1,024
//   - MaxLiterals: 1 to 1,000
//   - MaxLiteralLen: 1 to 1,024
//   - MaxClassSize: 1 to 256
//   - MaxRegexSentenceLength: at least 1
func (c Config) Validate() error {
	if c.Workers < 1 || c.Workers > 1_024 {
		return &ConfigError{Field: "Workers", Message: "must be between 1 and 1,024"}
	}
	if c.MaxLiterals < 1 || c.MaxLiterals > 1_000 {
		return &ConfigError{Field: "MaxLiterals", Message: "must be between 1 and 1,000"}
	}
	if c.MaxLiteralLen < 1 || c.MaxLiteralLen > 1_024 {
		return &ConfigError{Field: "MaxLiteralLen", Message: "must be between 1 and 1,024"}
	}
	if c.MaxClassSize < 1 || c.MaxClassSize > 256 {
		return &ConfigError{Field: "MaxClassSize", Message: "must be between 1 and 256"}
	}
	if c.MaxRegexSentenceLength < 1 {
		return &ConfigError{Field: "MaxRegexSentenceLength", Message: "must be at least 1"}
	}
	return nil
}

func (c Config) extractor() literal.ExtractorConfig {
	return literal.ExtractorConfig{
		MaxLiterals:   c.MaxLiterals,
		MaxLiteralLen: c.MaxLiteralLen,
		MaxClassSize:  c.MaxClassSize,
	}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "corerule: invalid config: " + e.Field + ": " + e.Message
}
