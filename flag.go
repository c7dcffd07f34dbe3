package main

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/charmbracelet/skim/internal/catalog"
	xstrings "github.com/charmbracelet/x/exp/strings"
)

var (
	shorthandRE       = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidArgumentRE = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)
)

func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		flag = strings.TrimSpace(strings.TrimPrefix(s, "flag needs an argument:"))
		if _, short, ok := strings.Cut(flag, " in "); ok {
			flag = short
		}
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if parts := shorthandRE.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidArgumentRE.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

type durationFlag time.Duration

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	*d = durationFlag(v)
	//nolint: wrapcheck
	return err
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

// providerFlag only accepts known provider ids.
type providerFlag string

func newProviderFlag(p *string) *providerFlag {
	return (*providerFlag)(p)
}

func providerNames() []string {
	return []string{string(catalog.OpenAI), string(catalog.Gemini)}
}

func (p *providerFlag) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(providerNames(), s) {
		return fmt.Errorf("must be %s", xstrings.EnglishJoin(providerNames(), false))
	}
	*p = providerFlag(s)
	return nil
}

func (p *providerFlag) String() string {
	return string(*p)
}

func (*providerFlag) Type() string {
	return "provider"
}
