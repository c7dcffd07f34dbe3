package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/custommodels"
	xstrings "github.com/charmbracelet/x/exp/strings"
)

func (a *app) listModels(w io.Writer) {
	s := stdoutStyles()
	active := a.session.ActiveModel()
	for i, g := range catalog.ListForDisplay(a.builtins, a.models.List()) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.Provider.Render(g.Profile.DisplayName))
		for _, m := range g.Models {
			marker := "  "
			name := s.Model.Render(m.ID)
			if strings.EqualFold(m.ID, active) {
				marker = s.Active.Render(">") + " "
				name = s.Active.Render(m.ID)
			}
			fmt.Fprintf(w, "%s%s%s\n", marker, name, modelNotes(s, m))
		}
	}
}

func modelNotes(s styles, m catalog.Model) string {
	var notes []string
	if m.DisplayName != "" && m.DisplayName != m.ID {
		notes = append(notes, m.DisplayName)
	}
	if m.Custom {
		notes = append(notes, "custom")
	}
	if m.Thinking {
		notes = append(notes, "thinking")
	}
	if !m.AddedAt.IsZero() {
		notes = append(notes, "added "+timeago.Of(m.AddedAt))
	}
	if len(notes) == 0 {
		return ""
	}
	return " " + s.Timeago.Render(strings.Join(notes, " · "))
}

// parseModelRef parses PROVIDER:ID. Without a known provider prefix, the
// whole ref is looked up among the custom models, so ids may contain colons.
func parseModelRef(ref string, custom []catalog.Model) (catalog.ProviderID, string, error) {
	if p, id, ok := strings.Cut(ref, ":"); ok {
		if pid, err := parseProvider(p); err == nil {
			return pid, strings.TrimSpace(id), nil
		}
	}
	id := strings.TrimSpace(ref)
	for _, m := range custom {
		if strings.EqualFold(m.ID, id) {
			return m.Provider, m.ID, nil
		}
	}
	return "", id, newUserErrorf("%q is not a custom model", id)
}

func parseProvider(s string) (catalog.ProviderID, error) {
	var p string
	if err := newProviderFlag(&p).Set(s); err != nil {
		return "", err
	}
	return catalog.ProviderID(p), nil
}

func (a *app) addModel(ctx context.Context, ref string, thinking bool) error {
	var (
		p   catalog.ProviderID
		id  string
		err error
	)
	if ref == "-" {
		p, id, thinking, err = addModelForm(ctx, a.builtins.Providers())
		if err != nil {
			return err
		}
	} else {
		pv, rest, ok := strings.Cut(ref, ":")
		if !ok {
			return newUserErrorf("use PROVIDER:ID, where PROVIDER is %s", xstrings.EnglishJoin(providerNames(), false))
		}
		if p, err = parseProvider(pv); err != nil {
			return err
		}
		id = strings.TrimSpace(rest)
	}

	if err := a.session.AddCustomModel(ctx, p, id, thinking); err != nil {
		switch {
		case errors.Is(err, custommodels.ErrDuplicate):
			return skimError{err, "That model already exists."}
		case errors.Is(err, custommodels.ErrInvalid):
			return skimError{err, "That is not a valid model."}
		}
		return skimError{err, "Could not save the model."}
	}
	fmt.Fprintf(os.Stderr, "\n  Added %s to %s.\n\n", stderrStyles().Model.Render(id), stderrStyles().Provider.Render(string(p)))
	return nil
}

func (a *app) deleteModel(ctx context.Context, ref string) error {
	p, id, err := parseModelRef(ref, a.models.List())
	if err != nil {
		return err
	}
	if isInputTTY() && isErrTTY() {
		ok, err := confirm(ctx, fmt.Sprintf("Delete %s?", id))
		if err != nil || !ok {
			return err
		}
	}
	removed, err := a.session.RemoveCustomModel(ctx, id, p)
	if err != nil {
		return skimError{err, "Could not delete the model."}
	}
	if !removed {
		return newUserErrorf("%s is not a custom %s model", id, p)
	}
	fmt.Fprintf(os.Stderr, "\n  Deleted %s.\n\n", stderrStyles().Model.Render(id))
	return nil
}

func (a *app) selectModel(ctx context.Context) error {
	groups := catalog.ListForDisplay(a.builtins, a.models.List())
	id, err := selectModel(ctx, groups, a.session.ActiveModel())
	if err != nil {
		return err
	}
	if err := a.session.SetActiveModel(ctx, id); err != nil {
		return skimError{err, "Could not select the model."}
	}
	fmt.Fprintf(os.Stderr, "\n  Using %s from now on.\n\n", stderrStyles().Model.Render(id))
	return nil
}

func (a *app) setKey(ctx context.Context, p catalog.ProviderID, stdin io.Reader) error {
	var key string
	if isInputTTY() {
		profile, _ := a.builtins.Profile(p)
		v, err := readSecret(ctx, profile.DisplayName+" API key")
		if err != nil {
			return err
		}
		key = v
	} else {
		bts, err := io.ReadAll(io.LimitReader(stdin, 64<<10))
		if err != nil {
			return skimError{err, "Unable to read stdin."}
		}
		key = strings.TrimSpace(string(bts))
	}
	if key == "" {
		return newUserErrorf("no key given")
	}
	if err := a.credentials.Set(ctx, p, key); err != nil {
		return skimError{err, "Could not save the key."}
	}
	fmt.Fprintf(os.Stderr, "\n  Saved the %s key.\n\n", stderrStyles().Provider.Render(string(p)))
	return nil
}

func (a *app) clearKey(ctx context.Context, p catalog.ProviderID) error {
	if err := a.credentials.Clear(ctx, p); err != nil {
		return skimError{err, "Could not clear the key."}
	}
	fmt.Fprintf(os.Stderr, "\n  Cleared the %s key.\n\n", stderrStyles().Provider.Render(string(p)))
	return nil
}
