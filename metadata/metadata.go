/*
Package metadata implements the animation data file written next to the
images exported from an ART archive.

The file is INI text with one section per tile that carries animation data,
named after the tile number:

	[tile0042]
	frames   = 4
	type     = forward
	x_center = 0
	y_center = -3
	speed    = 5
	flags    = 0
	width    = 64
	height   = 64
*/
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/raulcorreia7/art2img-sub001/art"
	"gopkg.in/ini.v1"
)

// Filename is the expected filename used when writing to disk
const Filename = "animdata.ini"

const sectionPrefix = "tile"

// Entry is the metadata recorded for one tile
type Entry struct {
	Width     int
	Height    int
	Animation art.Animation
}

// DB is the animation metadata database object. It implements the
// encoding.TextMarshaler and encoding.TextUnmarshaler interfaces.
type DB struct {
	entries map[uint32]Entry
}

// New returns an empty metadata database
func New() *DB {
	return &DB{
		entries: make(map[uint32]Entry),
	}
}

// Length returns the number of tiles in the database
func (db *DB) Length() int {
	return len(db.entries)
}

// Set stores the entry for the given tile number. Tiles without animation
// data are ignored.
func (db *DB) Set(id uint32, e Entry) {
	if e.Animation.IsZero() {
		return
	}
	db.entries[id] = e
}

// Get returns the entry for the given tile number
func (db *DB) Get(id uint32) (Entry, bool) {
	e, ok := db.entries[id]
	return e, ok
}

// IDs returns the tile numbers in ascending order
func (db *DB) IDs() []uint32 {
	keys := make([]uint32, 0, len(db.entries))
	for k := range db.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalText encodes the database
func (db *DB) MarshalText() ([]byte, error) {
	f := ini.Empty()
	for _, id := range db.IDs() {
		e := db.entries[id]
		sec, err := f.NewSection(fmt.Sprintf("%s%04d", sectionPrefix, id))
		if err != nil {
			return nil, err
		}
		sec.Key("frames").SetValue(strconv.Itoa(int(e.Animation.Frames)))
		sec.Key("type").SetValue(e.Animation.Type.String())
		sec.Key("x_center").SetValue(strconv.Itoa(int(e.Animation.XCenter)))
		sec.Key("y_center").SetValue(strconv.Itoa(int(e.Animation.YCenter)))
		sec.Key("speed").SetValue(strconv.Itoa(int(e.Animation.Speed)))
		sec.Key("flags").SetValue(strconv.Itoa(int(e.Animation.Flags)))
		sec.Key("width").SetValue(strconv.Itoa(e.Width))
		sec.Key("height").SetValue(strconv.Itoa(e.Height))
	}

	b := new(bytes.Buffer)
	if _, err := f.WriteTo(b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (e *Entry) set(k *ini.Key) error {
	a := &e.Animation
	switch k.Name() {
	case "type":
		return a.Type.UnmarshalText([]byte(k.String()))
	case "frames":
		n, err := k.Uint64()
		if err != nil {
			return err
		}
		if n > 63 {
			return errors.New("frames out of range")
		}
		a.Frames = uint8(n)
	case "speed", "flags":
		n, err := k.Uint64()
		if err != nil {
			return err
		}
		if n > 15 {
			return fmt.Errorf("%s out of range", k.Name())
		}
		if k.Name() == "speed" {
			a.Speed = uint8(n)
		} else {
			a.Flags = uint8(n)
		}
	case "x_center", "y_center":
		n, err := k.Int64()
		if err != nil {
			return err
		}
		if n < -128 || n > 127 {
			return errors.New("center offset out of range")
		}
		if k.Name() == "x_center" {
			a.XCenter = int8(n)
		} else {
			a.YCenter = int8(n)
		}
	case "width", "height":
		n, err := k.Int64()
		if err != nil {
			return err
		}
		if n < 0 || n > art.MaxDimension {
			return errors.New("dimension out of range")
		}
		if k.Name() == "width" {
			e.Width = int(n)
		} else {
			e.Height = int(n)
		}
	default:
		// Unknown keys are tolerated
	}
	return nil
}

// UnmarshalText decodes the database
func (db *DB) UnmarshalText(b []byte) error {
	f, err := ini.Load(b)
	if err != nil {
		return err
	}

	entries := make(map[uint32]Entry)
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			if keys := sec.Keys(); len(keys) > 0 {
				return fmt.Errorf("key %q outside a section", keys[0].Name())
			}
			continue
		}

		if !strings.HasPrefix(name, sectionPrefix) {
			return fmt.Errorf("bad section %q", name)
		}
		id, err := strconv.ParseUint(name[len(sectionPrefix):], 10, 32)
		if err != nil {
			return fmt.Errorf("bad tile number in section %q: %w", name, err)
		}

		var e Entry
		for _, k := range sec.Keys() {
			if err := e.set(k); err != nil {
				return fmt.Errorf("%s: %s: %w", name, k.Name(), err)
			}
		}
		entries[uint32(id)] = e
	}
	db.entries = entries

	return nil
}
