/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"navalcards/internal/autocomplete"
	"navalcards/internal/domain"
	"navalcards/internal/editor"
	"navalcards/internal/vector"
	"navalcards/internal/workspace"
)

// lastID stands for the element created by the previous add or dup step.
const lastID = "$"

// editScript runs scripted editor steps against one session. Steps are
// colon separated:
//
//	add:TYPE            text:ID:CONTENT      delete:ID     dup:ID
//	move:ID:DX:DY       resize:ID:W:H        front:ID      back:ID
//	drag:ID:DX:DY       grip:ID:HANDLE:DX:DY hide:ID
//	undo                redo
//
// drag and grip go through the pointer controller, so grid and snap
// settings apply and each gesture becomes one history entry.
type editScript struct {
	s    *editor.Session
	last string
}

func (e *editScript) id(s string) (string, error) {
	if s != lastID {
		return s, nil
	}
	if e.last == "" {
		return "", fmt.Errorf("%s used before add or dup", lastID)
	}
	return e.last, nil
}

func floats(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// center is the client point of the middle of element id at zoom 1.
func (e *editScript) center(id string) (vector.Pt, error) {
	el, ok := e.s.Store().ElementByID(id)
	if !ok {
		return vector.Pt{}, fmt.Errorf("element %q not found", id)
	}
	return vector.Pt{X: el.X + el.Width/2, Y: el.Y + el.Height/2}, nil
}

func (e *editScript) gesture(press workspace.Event, from vector.Pt, dx, dy float64) {
	e.s.Handle(press)
	e.s.Handle(workspace.PointerMove{Client: vector.Pt{X: from.X + dx, Y: from.Y + dy}})
	e.s.Handle(workspace.PointerUp{})
}

func (e *editScript) run(step string) error {
	parts := strings.Split(step, ":")
	op, args := parts[0], parts[1:]
	want := map[string]int{
		"add": 1, "text": 2, "delete": 1, "dup": 1, "move": 3, "resize": 3,
		"front": 1, "back": 1, "hide": 1, "drag": 3, "grip": 4, "undo": 0, "redo": 0,
	}
	n, ok := want[op]
	if !ok {
		return fmt.Errorf("unknown edit step %q", step)
	}
	if op == "text" && len(args) > 2 {
		args = []string{args[0], strings.Join(args[1:], ":")}
	}
	if len(args) != n {
		return fmt.Errorf("edit step %q: want %d arguments", step, n)
	}

	switch op {
	case "add":
		t := domain.ElementType(args[0])
		if !t.Valid() {
			return fmt.Errorf("unknown element type %q", args[0])
		}
		e.last = e.s.AddElement(t, nil)
		return nil
	case "undo":
		if !e.s.Undo() {
			return fmt.Errorf("nothing to undo")
		}
		return nil
	case "redo":
		if !e.s.Redo() {
			return fmt.Errorf("nothing to redo")
		}
		return nil
	}

	id, err := e.id(args[0])
	if err != nil {
		return err
	}
	switch op {
	case "text":
		content := args[1]
		return e.s.UpdateElement(id, domain.ElementPatch{Content: &content})
	case "delete":
		return e.s.DeleteElement(id)
	case "dup":
		dup, err := e.s.DuplicateElement(id)
		if err != nil {
			return err
		}
		e.last = dup
		return nil
	case "front":
		e.s.BringToFront(id)
	case "back":
		e.s.SendToBack(id)
	case "hide":
		e.s.ToggleVisibility(id)
	case "move", "resize", "drag":
		v, err := floats(args[1:])
		if err != nil {
			return err
		}
		switch op {
		case "move":
			e.s.MoveElement(id, v[0], v[1])
		case "resize":
			e.s.ResizeElement(id, v[0], v[1], nil, nil)
		case "drag":
			from, err := e.center(id)
			if err != nil {
				return err
			}
			e.gesture(workspace.PressElement{ElementID: id, Client: from}, from, v[0], v[1])
		}
	case "grip":
		h := domain.ResizeHandle(args[1])
		if !h.Valid() {
			return fmt.Errorf("unknown resize handle %q", args[1])
		}
		v, err := floats(args[2:])
		if err != nil {
			return err
		}
		from, err := e.center(id)
		if err != nil {
			return err
		}
		e.s.Select(id)
		e.gesture(workspace.PressHandle{Handle: h, Client: from}, from, v[0], v[1])
	}
	return nil
}

func cmdEdit(a *app, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	push := fs.Bool("push", false, "also save to the backend")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	if _, err := a.openUnit(fs.Arg(0), *push); err != nil {
		return err
	}
	script := &editScript{s: a.live}
	for _, step := range fs.Args()[1:] {
		if err := script.run(step); err != nil {
			return err
		}
	}
	if err := a.live.Save(a.ctx); err != nil {
		return err
	}
	inf := a.live.History()
	for _, en := range inf.Items {
		mark := " "
		if en.IsCurrent {
			mark = "*"
		}
		a.printf("%s %2d %s\n", mark, en.Index, en.Description)
	}
	a.printf("%s %d elementi\n", okStyle.Render("salvato"), len(a.live.Elements()))
	return nil
}

func cmdIdentify(a *app, args []string) error {
	fs := flag.NewFlagSet("identify", flag.ContinueOnError)
	push := fs.Bool("push", false, "also send the notes to the backend")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	db, err := a.local()
	if err != nil {
		return err
	}
	u, err := db.GetUnit(a.ctx, id)
	if err != nil {
		return err
	}
	notes, it, err := autocomplete.AddIdentification(u.Notes, strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return err
	}
	if *push {
		if _, err := a.remote().UpdateNotes(a.ctx, id, notes); err != nil {
			return err
		}
	}
	u.Notes = notes
	if err := db.PutUnit(a.ctx, u); err != nil {
		return err
	}
	if err := autocomplete.NewDictionary(db).Add(a.ctx, it.Element); err != nil {
		return err
	}
	a.printf("%s %s (%s)\n", okStyle.Render("aggiunto"), it.Element, it.ID)
	return nil
}
