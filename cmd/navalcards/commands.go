/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"navalcards/internal/autocomplete"
	"navalcards/internal/canvas"
	"navalcards/internal/config"
	"navalcards/internal/crash"
	"navalcards/internal/domain"
	"navalcards/internal/export"
	applog "navalcards/internal/log"
	"navalcards/internal/storage"
	"navalcards/internal/telemetry"
	"navalcards/internal/version"
)

// errUsage makes run print the command usage and exit with status 2.
var errUsage = errors.New("usage")

type command struct {
	args string
	help string
	run  func(a *app, args []string) error
}

var commands = map[string]command{
	"version":   {"", "Show version", cmdVersion},
	"login":     {"<email> [password]", "Log in to the backend and keep the token in the OS keyring", cmdLogin},
	"logout":    {"", "Forget the stored token", cmdLogout},
	"pull":      {"[-limit n]", "Copy units from the backend into the local store", cmdPull},
	"units":     {"", "List local units", cmdUnits},
	"push":      {"<unit-id>", "Send the local card of a unit to the backend", cmdPush},
	"apply":     {"[-format] [-push] <unit-id> <template-id>", "Apply a template to a unit card", cmdApply},
	"switch":    {"[-push] <unit-id> <template-id>", "Switch a unit card to another template, keeping per-template states", cmdSwitch},
	"image":     {"<unit-id> <element-id> <file>", "Upload an image and set it on a card element", cmdImage},
	"render":    {"[-preset web|print] [-format png,pdf] [-dpi n] [-out dir] [unit-id...]", "Export cards as PNG and PDF", cmdRender},
	"pdf":       {"<out.pdf> [unit-id...]", "Write cards into one PDF sheet", cmdPDF},
	"versions":  {"<unit-id>", "List saved layout versions of a unit", cmdVersions},
	"recover":   {"<unit-id>", "Restore a unit card from its crash autosave", cmdRecover},
	"suggest":   {"[-limit n] <text>", "Suggest identification elements", cmdSuggest},
	"identify":  {"[-push] <unit-id> <element...>", "Add an identification element to the unit notes", cmdIdentify},
	"edit":      {"[-push] <unit-id> <step...>", "Run editor steps (add, move, resize, drag, grip, undo, ...) on a unit card", cmdEdit},
	"templates": {"list|export|import|pack|unpack|duplicate|delete ...", "Manage the template library", cmdTemplates},
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, heading.Render("Naval Cards "+version.String()))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	for _, name := range sortedKeys(commands) {
		c := commands[name]
		_, _ = fmt.Fprintf(w, "  navalcards %s %s\n      %s\n", name, c.args, muted.Render(c.help))
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid unit id %q", s)
	}
	return id, nil
}

func cmdVersion(a *app, _ []string) error {
	a.printf("%s\n", version.String())
	return nil
}

func cmdLogin(a *app, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	password := os.Getenv("NAVALCARDS_PASSWORD")
	if len(args) > 1 {
		password = args[1]
	}
	tok, err := a.remote().Login(a.ctx, args[0], password)
	if err != nil {
		return err
	}
	if err := config.SetToken(tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	a.printf("%s\n", okStyle.Render("Accesso effettuato"))
	return nil
}

func cmdLogout(a *app, _ []string) error {
	if err := config.ClearToken(); err != nil {
		return err
	}
	a.printf("%s\n", okStyle.Render("Token rimosso"))
	return nil
}

func cmdPull(a *app, args []string) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	limit := fs.Int("limit", 100, "page size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	db, err := a.local()
	if err != nil {
		return err
	}
	var all []domain.NavalUnit
	for skip := 0; ; skip += *limit {
		page, err := a.remote().ListUnits(a.ctx, skip, *limit)
		if err != nil {
			return err
		}
		for _, u := range page {
			if err := db.PutUnit(a.ctx, u); err != nil {
				return err
			}
		}
		all = append(all, page...)
		if len(page) < *limit {
			break
		}
	}
	n, err := autocomplete.NewDictionary(db).Rebuild(a.ctx, all)
	if err != nil {
		return err
	}
	a.printf("%s %d unità, %d elementi di identificazione\n", okStyle.Render("Scaricate"), len(all), n)
	return nil
}

func cmdUnits(a *app, _ []string) error {
	db, err := a.local()
	if err != nil {
		return err
	}
	units, err := db.ListUnits(a.ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Name, u.UnitClass, u.Nation, u.CurrentTemplateID})
	}
	_, _ = fmt.Fprint(a.out, renderTable([]string{"ID", "NOME", "CLASSE", "NAZIONE", "TEMPLATE"}, rows))
	return nil
}

// openUnit loads a local unit into a fresh session.
func (a *app) openUnit(idArg string, push bool) (domain.NavalUnit, error) {
	id, err := parseID(idArg)
	if err != nil {
		return domain.NavalUnit{}, err
	}
	db, err := a.local()
	if err != nil {
		return domain.NavalUnit{}, err
	}
	u, err := db.GetUnit(a.ctx, id)
	if err != nil {
		return domain.NavalUnit{}, err
	}
	s, err := a.session(push)
	if err != nil {
		return domain.NavalUnit{}, err
	}
	s.Open(applog.ContextWithUnit(a.ctx, id), u)
	return u, nil
}

func cmdPush(a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if _, err := a.openUnit(args[0], true); err != nil {
		return err
	}
	return a.live.Save(a.ctx)
}

func cmdApply(a *app, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	formatOnly := fs.Bool("format", false, "keep content, change only geometry and style")
	push := fs.Bool("push", false, "also save to the backend")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	if _, err := a.openUnit(fs.Arg(0), *push); err != nil {
		return err
	}
	if err := a.live.ApplyTemplate(a.ctx, fs.Arg(1), *formatOnly); err != nil {
		return err
	}
	return a.live.Save(a.ctx)
}

func cmdSwitch(a *app, args []string) error {
	fs := flag.NewFlagSet("switch", flag.ContinueOnError)
	push := fs.Bool("push", false, "also save to the backend")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	if _, err := a.openUnit(fs.Arg(0), *push); err != nil {
		return err
	}
	if err := a.live.SwitchTemplate(a.ctx, fs.Arg(1)); err != nil {
		return err
	}
	return a.live.Save(a.ctx)
}

func cmdImage(a *app, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	if _, err := a.openUnit(args[0], true); err != nil {
		return err
	}
	f, err := os.Open(args[2])
	if err != nil {
		return err
	}
	defer f.Close()
	if err := a.live.SetElementImage(a.ctx, args[1], filepath.Base(args[2]), f); err != nil {
		return err
	}
	return a.live.Save(a.ctx)
}

// cards loads the named units, or every local unit when ids is empty.
func (a *app) cards(ids []string) ([]export.Card, error) {
	db, err := a.local()
	if err != nil {
		return nil, err
	}
	var units []domain.NavalUnit
	if len(ids) == 0 {
		if units, err = db.ListUnits(a.ctx); err != nil {
			return nil, err
		}
	}
	for _, s := range ids {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		u, err := db.GetUnit(a.ctx, id)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	cards := make([]export.Card, 0, len(units))
	for i := range units {
		st := canvas.NewStore()
		st.Bind(&units[i])
		cards = append(cards, export.Card{Unit: &units[i], State: st.Snapshot()})
	}
	return cards, nil
}

func cmdRender(a *app, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	preset := fs.String("preset", string(export.PresetWeb), "web or print")
	formats := fs.String("format", "", "comma separated formats (png,pdf)")
	dpi := fs.Int("dpi", 0, "PNG resolution override")
	out := fs.String("out", a.cfg.Export.OutDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cards, err := a.cards(fs.Args())
	if err != nil {
		return err
	}
	opt := export.BatchOptions{
		Preset:      export.PresetName(*preset),
		DPIOverride: *dpi,
		OutDir:      *out,
		Fonts:       a.fonts(),
		Images:      a.images(),
	}
	if opt.DPIOverride == 0 && a.cfg.Export.Scale != 1 && opt.Preset == export.PresetWeb {
		opt.DPIOverride = int(96 * a.cfg.Export.Scale)
	}
	if *formats != "" {
		opt.Formats = strings.Split(*formats, ",")
	}
	written, err := export.Batch(a.ctx, cards, opt)
	for _, p := range written {
		a.printf("%s %s\n", okStyle.Render("scritto"), p)
	}
	if err != nil {
		return err
	}
	a.event(telemetry.EventCardExported, map[string]any{"cards": len(cards), "files": len(written), "preset": *preset})
	return nil
}

func cmdPDF(a *app, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	cards, err := a.cards(args[1:])
	if err != nil {
		return err
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := export.WritePDF(a.ctx, f, cards, export.PDFOptions{Images: a.images(), PageLabel: true, Title: "Naval unit cards"}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.event(telemetry.EventCardExported, map[string]any{"cards": len(cards), "format": "pdf"})
	a.printf("%s %s\n", okStyle.Render("scritto"), args[0])
	return nil
}

func cmdVersions(a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	db, err := a.local()
	if err != nil {
		return err
	}
	vs, err := db.ListVersions(a.ctx, id, 0)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, []string{strconv.FormatInt(v.ID, 10), v.TS.Format("2006-01-02 15:04:05"), v.Description, strconv.Itoa(len(v.State.Elements))})
	}
	_, _ = fmt.Fprint(a.out, renderTable([]string{"ID", "DATA", "DESCRIZIONE", "ELEMENTI"}, rows))
	return nil
}

func cmdRecover(a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, ok, err := crash.LoadAutosave(a.crashDir(), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no autosave for unit %d", id)
	}
	if _, err := a.openUnit(args[0], false); err != nil {
		return err
	}
	a.live.Replace(st, "Ripristino da salvataggio automatico")
	return a.live.Save(a.ctx)
}

func cmdSuggest(a *app, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	limit := fs.Int("limit", autocomplete.DefaultLimit, "maximum suggestions")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	db, err := a.local()
	if err != nil {
		return err
	}
	for _, s := range autocomplete.NewDictionary(db).Suggest(a.ctx, strings.Join(fs.Args(), " "), *limit) {
		a.printf("%s %s\n", s.Element, muted.Render(fmt.Sprintf("(%d)", s.Count)))
	}
	return nil
}

func cmdTemplates(a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	rest := args[1:]
	switch args[0] {
	case "list":
		list, err := lib.List(a.ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, t := range list {
			kind := "utente"
			if t.IsDefault {
				kind = "predefinito"
			}
			rows = append(rows, []string{t.ID, t.Name, kind, strconv.Itoa(len(t.Elements))})
		}
		_, _ = fmt.Fprint(a.out, renderTable([]string{"ID", "NOME", "TIPO", "ELEMENTI"}, rows))
		return nil
	case "export":
		fs := flag.NewFlagSet("templates export", flag.ContinueOnError)
		out := fs.String("o", "", "output file (default: generated name)")
		clip := fs.Bool("clipboard", false, "copy the document to the clipboard")
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 {
			return errUsage
		}
		data, name, err := lib.Export(a.ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if *clip {
			if err := clipboard.WriteAll(string(data)); err != nil {
				return fmt.Errorf("clipboard: %w", err)
			}
			a.printf("%s\n", okStyle.Render("Template copiato negli appunti"))
			return nil
		}
		if *out == "" {
			*out = name
		}
		if err := storage.WriteFileAtomic(*out, data, false); err != nil {
			return err
		}
		a.printf("%s %s\n", okStyle.Render("scritto"), *out)
		return nil
	case "import":
		fs := flag.NewFlagSet("templates import", flag.ContinueOnError)
		clip := fs.Bool("clipboard", false, "read the document from the clipboard")
		if err := fs.Parse(rest); err != nil || (fs.NArg() == 0 && !*clip) {
			return errUsage
		}
		var docs [][]byte
		if *clip {
			s, err := clipboard.ReadAll()
			if err != nil {
				return fmt.Errorf("clipboard: %w", err)
			}
			docs = append(docs, []byte(s))
		}
		for _, p := range fs.Args() {
			b, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			docs = append(docs, b)
		}
		imported := 0
		for _, d := range docs {
			t, err := lib.Import(a.ctx, d)
			if err != nil {
				a.log.Warn("template skipped", slog.Any("err", err))
				continue
			}
			imported++
			a.printf("%s %s (%s)\n", okStyle.Render("importato"), t.Name, t.ID)
		}
		if imported == 0 {
			return errors.New("no valid template found")
		}
		return nil
	case "pack":
		if len(rest) < 1 {
			return errUsage
		}
		ids := rest[1:]
		if len(ids) == 0 {
			list, err := lib.List(a.ctx)
			if err != nil {
				return err
			}
			for _, t := range list {
				if !t.IsDefault {
					ids = append(ids, t.ID)
				}
			}
		}
		n, err := lib.ExportPack(a.ctx, ids, rest[0])
		if err != nil {
			return err
		}
		a.printf("%s %d template in %s\n", okStyle.Render("scritti"), n, rest[0])
		return nil
	case "unpack":
		if len(rest) != 1 {
			return errUsage
		}
		n, err := lib.InstallPack(a.ctx, rest[0])
		if err != nil {
			return err
		}
		a.printf("%s %d template\n", okStyle.Render("installati"), n)
		return nil
	case "duplicate":
		if len(rest) != 1 {
			return errUsage
		}
		t, err := lib.Duplicate(a.ctx, rest[0])
		if err != nil {
			return err
		}
		a.printf("%s %s (%s)\n", okStyle.Render("duplicato"), t.Name, t.ID)
		return nil
	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		return lib.Delete(a.ctx, rest[0])
	}
	return errUsage
}
