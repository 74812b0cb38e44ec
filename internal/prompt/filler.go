// Package prompt asks for payload values on the terminal. It walks a Map in
// declaration order and prompts for every required field that is still
// missing or invalid, descending into nested Maps.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// Custom property read from fields to choose the prompt kind.
const (
	CustomPrompt   = "prompt"
	PromptPassword = "password"
	PromptConfirm  = "confirm"
)

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithAllFields prompts for every accessible field, prefilled with its
// current value, instead of only the missing required ones.
func WithAllFields(all bool) Option {
	return func(f *Filler) {
		f.all = all
	}
}

// WithLogger sets the logger used for skipped fields.
func WithLogger(logger log.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Filler fills payload maps interactively.
type Filler struct {
	driver PromptDriver
	all    bool
	logger log.Logger
}

// New returns a Filler using the survey driver unless overridden.
func New(opts ...Option) *Filler {
	f := &Filler{driver: NewSurveyDriver(), logger: log.NewNopLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for the fields of m that need a value and stores each answer
// through Map.Set, so declared setters apply.
func (f *Filler) Fill(ctx context.Context, m *payload.Map) error {
	if f.driver == nil {
		return ErrNoDriver
	}
	return f.fill(ctx, m, "")
}

func (f *Filler) fill(ctx context.Context, m *payload.Map, prefix string) error {
	for _, field := range m.Fields() {
		if nested, ok := field.GetValue(nil).(*payload.Map); ok {
			if err := f.fill(ctx, nested, prefix+field.Key()+"."); err != nil {
				return err
			}
			continue
		}
		if !f.needsAnswer(field) {
			continue
		}
		if err := f.ask(ctx, m, field, prefix); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) needsAnswer(field *payload.Field) bool {
	if !field.IsAccessible() {
		return false
	}
	if f.all {
		return true
	}
	return field.IsRequired() && !field.Validate()
}

func (f *Filler) ask(ctx context.Context, m *payload.Map, field *payload.Field, prefix string) error {
	message := field.GetLabel()
	if message == "" {
		message = prefix + field.Key()
	}
	rule := field.GetValidator()
	help := ""
	if describer, ok := rule.(validate.Describer); ok {
		help = describer.Describe().String()
	}
	current := ""
	if value := field.GetValue(nil); value != nil {
		current = fmt.Sprint(value)
	}

	for {
		answer, err := f.answer(ctx, field, message, help, current, rule)
		if err != nil {
			return err
		}
		err = m.Set(field.Key(), answer)
		if err == nil {
			return nil
		}
		level.Debug(f.logger).Log("msg", "answer rejected", "payload", m.Name(), "key", field.Key(), "err", err)
		hint := err.Error()
		if invalid, ok := payload.AsInvalidData(err); ok {
			hint = invalid.Hint
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", message, hint)); err != nil {
			return err
		}
	}
}

func (f *Filler) answer(ctx context.Context, field *payload.Field, message, help, current string, rule validate.Validator) (any, error) {
	if options, ok := validate.Options(rule); ok {
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, current),
			Help:         help,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			return nil, fmt.Errorf("prompt: selection %d out of range for %q", idx, field.Key())
		}
		return options[idx], nil
	}

	kind, _ := field.GetCustom(CustomPrompt, "").(string)
	switch strings.ToLower(kind) {
	case PromptConfirm:
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: help, Default: current == "true"})
	case PromptPassword:
		return f.driver.Password(ctx, InputConfig{Message: message, Help: help, Validator: textRule(field, rule)})
	default:
		return f.driver.Input(ctx, InputConfig{Message: message, Help: help, Default: current, Validator: textRule(field, rule)})
	}
}

func textRule(field *payload.Field, rule validate.Validator) func(string) error {
	return func(text string) error {
		if text == "" && field.IsRequired() {
			return fmt.Errorf("%s is required", field.Key())
		}
		if rule != nil && text != "" && !rule.Validate(text) {
			return fmt.Errorf("%q is not accepted", text)
		}
		return nil
	}
}
