package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"beat-factory/debug"
	"beat-factory/machine"
)

const saveTimeFormat = "2006-01-02_15-04-05"

// PlacedMachine is one machine in a saved layout
type PlacedMachine struct {
	Kind  machine.Kind `json:"kind"`
	At    Pos          `json:"at"`
	Fixed bool         `json:"fixed,omitempty"`
}

// Link is a saved edge between two machine anchor cells
type Link struct {
	From Pos `json:"from"`
	To   Pos `json:"to"`
}

// Layout is the persistent part of a factory floor
type Layout struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Player   Pos             `json:"player"`
	Machines []PlacedMachine `json:"machines"`
	Links    []Link          `json:"links"`
}

// SaveInfo represents a saved layout file (for listing)
type SaveInfo struct {
	Filename  string
	Timestamp time.Time
}

// Layout captures placements and links in placement order
func (w *World) Layout() Layout {
	l := Layout{Width: w.width, Height: w.height}

	placed := make([]placement, 0, len(w.placed))
	for _, pl := range w.placed {
		placed = append(placed, pl)
	}
	sort.Slice(placed, func(i, j int) bool { return placed[i].seq < placed[j].seq })

	anchor := make(map[machine.ID]Pos, len(placed))
	for _, pl := range placed {
		anchor[pl.m.ID()] = pl.cells[0]
		fixed := false
		if d, ok := pl.m.(machine.Destructible); ok {
			fixed = !d.Destructible()
		}
		l.Machines = append(l.Machines, PlacedMachine{Kind: pl.m.Kind(), At: pl.cells[0], Fixed: fixed})
	}
	for _, pl := range placed {
		for _, in := range w.pool.Inputs(pl.m.ID()) {
			if from, ok := anchor[in]; ok {
				l.Links = append(l.Links, Link{From: from, To: pl.cells[0]})
			}
		}
	}
	return l
}

// Restore replaces every placement with the layout's. Entries that no
// longer fit are skipped and reported in the returned error.
func (w *World) Restore(l Layout) error {
	for id, pl := range w.placed {
		if f, ok := pl.m.(interface{ SetFixed(bool) }); ok {
			f.SetFixed(false)
		}
		w.remove(id)
	}

	var skipped []string
	for _, pm := range l.Machines {
		var err error
		if pm.Fixed {
			_, err = w.PlaceFixed(pm.Kind, pm.At)
		} else {
			_, err = w.Place(pm.Kind, pm.At, nil)
		}
		if err != nil {
			skipped = append(skipped, err.Error())
		}
	}
	for _, link := range l.Links {
		if err := w.Link(link.From, link.To); err != nil {
			skipped = append(skipped, err.Error())
		}
	}

	if len(skipped) > 0 {
		return fmt.Errorf("restore skipped %d entries: %s", len(skipped), strings.Join(skipped, "; "))
	}
	return nil
}

// SaveLayout writes l to dir with a timestamped name
func SaveLayout(dir string, l Layout, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", err
	}

	name := now.Format(saveTimeFormat) + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", err
	}
	debug.Log("world", "saved %d machines to %s", len(l.Machines), name)
	return name, nil
}

// ListSaves returns timestamped saves in dir, newest first
func ListSaves(dir string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := time.Parse(saveTimeFormat, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		saves = append(saves, SaveInfo{Filename: name, Timestamp: ts})
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// LoadLayout reads a save from dir, the newest when filename is empty
func LoadLayout(dir, filename string) (Layout, error) {
	if filename == "" {
		saves, err := ListSaves(dir)
		if err != nil {
			return Layout{}, err
		}
		if len(saves) == 0 {
			return Layout{}, fmt.Errorf("no saves found in %s: %w", dir, os.ErrNotExist)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return Layout{}, err
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return l, nil
}
