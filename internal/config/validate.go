package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
)

var (
	// ErrInvalidFamily indicates an unsupported project family
	ErrInvalidFamily = errors.New("invalid project family")

	// ErrInvalidIgnore indicates an empty or malformed ignore pattern
	ErrInvalidIgnore = errors.New("invalid ignore pattern")

	// ErrInvalidConcurrency indicates a negative or absurd worker count
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrInvalidLimit indicates a non-positive size/time guard or memo size
	ErrInvalidLimit = errors.New("invalid extraction limit")

	// ErrInvalidFormat indicates an unsupported output format
	ErrInvalidFormat = errors.New("invalid output format")
)

// fieldSentinels maps struct fields to the sentinel reported for them.
var fieldSentinels = map[string]error{
	"Family":       ErrInvalidFamily,
	"Ignore":       ErrInvalidIgnore,
	"ExtraIgnore":  ErrInvalidIgnore,
	"Concurrency":  ErrInvalidConcurrency,
	"MaxFileBytes": ErrInvalidLimit,
	"FileTimeout":  ErrInvalidLimit,
	"MemoSize":     ErrInvalidLimit,
	"Format":       ErrInvalidFormat,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is valid and complete. Every problem
// is reported; the result wraps one sentinel per offending field.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	errs = append(errs, validatePatterns("discovery.ignore", cfg.Discovery.Ignore)...)
	errs = append(errs, validatePatterns("discovery.extra_ignore", cfg.Discovery.ExtraIgnore)...)

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	field, _, _ := strings.Cut(fe.StructField(), "[")
	sentinel, ok := fieldSentinels[field]
	if !ok {
		return fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag())
	}
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", sentinel, path)
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s], got %q", sentinel, path, fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Errorf("%w: %s must satisfy %s=%s, got %v", sentinel, path, fe.Tag(), fe.Param(), fe.Value())
	}
}

func validatePatterns(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue // reported by the struct tags
		}
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s[%d] %q: %v", ErrInvalidIgnore, field, i, p, err))
		}
	}
	return errs
}
