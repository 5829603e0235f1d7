package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/dmitrymomot/contestkit/pkg/gallery"
	"github.com/dmitrymomot/contestkit/pkg/query"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *app) login(ctx context.Context, token string) error {
	if _, err := a.mount(ctx); err != nil {
		return err
	}
	a.store.SetToken(token)
	if err := a.store.Flush(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "logged in")
	return err
}

func (a *app) logout(ctx context.Context) error {
	if _, err := a.mount(ctx); err != nil {
		return err
	}
	a.store.ClearToken()
	gallery.ForgetUser(a.cache)
	if err := a.store.Flush(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "logged out")
	return err
}

func (a *app) whoami(ctx context.Context) error {
	if _, err := a.mount(ctx); err != nil {
		return err
	}

	gate := gallery.ProfileGate(a.cache, a.api, a.store)
	defer gate.Close()
	if !gate.Enabled() {
		return errNotLoggedIn
	}
	return printResult(a.out, gate.Fetch(ctx))
}

func (a *app) achievements(ctx context.Context, userID string) error {
	if _, err := a.mount(ctx); err != nil {
		return err
	}

	id := query.NewParam("")
	defer id.Close()
	gate := gallery.AchievementsGate(a.cache, a.api, id)
	defer gate.Close()

	id.Set(userID)
	return printResult(a.out, gate.Fetch(ctx))
}

// printResult writes a successful result as indented JSON.
func printResult[V any](w io.Writer, r query.Result[V]) error {
	if r.IsError() {
		return r.Err
	}
	if !r.HasValue {
		return fmt.Errorf("%s: no data", r.Key)
	}
	data, err := sonic.ConfigStd.MarshalIndent(r.Value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
