package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/skim/internal/catalog"
)

// credentialPrompter asks for a missing API key on the terminal.
type credentialPrompter struct{}

func (credentialPrompter) RequestCredential(ctx context.Context, profile catalog.Profile) (string, error) {
	var key string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API key", profile.DisplayName)).
				Description("It is kept in the settings store. Leave empty to cancel.").
				EchoMode(huh.EchoModePassword).
				Value(&key),
		),
	).
		WithOutput(os.Stderr).
		RunWithContext(ctx)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return strings.TrimSpace(key), nil
}

// errUserAborted is returned when the user quits a form.
var errUserAborted = errors.New("user aborted")

func runForm(ctx context.Context, fields ...huh.Field) error {
	err := huh.NewForm(huh.NewGroup(fields...)).
		WithOutput(os.Stderr).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return errUserAborted
	}
	return err //nolint:wrapcheck
}

func modelOptions(groups []catalog.Group) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, g := range groups {
		for _, m := range g.Models {
			label := g.Profile.DisplayName + " · " + m.Name()
			if m.Custom {
				label += " (custom)"
			}
			opts = append(opts, huh.NewOption(label, m.ID))
		}
	}
	return opts
}

func selectModel(ctx context.Context, groups []catalog.Group, active string) (string, error) {
	id := active
	err := runForm(ctx,
		huh.NewSelect[string]().
			Title("Choose a model:").
			Options(modelOptions(groups)...).
			Value(&id),
	)
	return id, err
}

func addModelForm(ctx context.Context, providers []catalog.ProviderID) (catalog.ProviderID, string, bool, error) {
	var (
		p        string
		id       string
		thinking bool
	)
	opts := make([]huh.Option[string], 0, len(providers))
	for _, pid := range providers {
		opts = append(opts, huh.NewOption(string(pid), string(pid)))
	}
	err := runForm(ctx,
		huh.NewSelect[string]().
			Title("Provider:").
			Options(opts...).
			Value(&p),
		huh.NewInput().
			Title("Model id:").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("the model id is required")
				}
				return nil
			}).
			Value(&id),
		huh.NewConfirm().
			Title("Does it use extended reasoning?").
			Value(&thinking),
	)
	return catalog.ProviderID(p), strings.TrimSpace(id), thinking, err
}

func confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := runForm(ctx,
		huh.NewConfirm().
			Title(title).
			Value(&ok),
	)
	return ok, err
}

func askFollowUp(ctx context.Context) (string, error) {
	var text string
	err := runForm(ctx,
		huh.NewText().
			Title("Ask about the article:").
			Description("Leave empty to quit.").
			Value(&text),
	)
	return strings.TrimSpace(text), err
}

func readSecret(ctx context.Context, title string) (string, error) {
	var v string
	err := runForm(ctx,
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&v),
	)
	return strings.TrimSpace(v), err
}
