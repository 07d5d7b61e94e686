package tables

import (
	_ "embed"
	"sync"
)

//go:embed hepburn.json
var hepburnJSON []byte

var (
	hepburnOnce   sync.Once
	hepburnTables Tables
)

// Hepburn returns the built-in traditional Hepburn tables. The returned maps
// are shared; callers must not modify them.
func Hepburn() Tables {
	hepburnOnce.Do(func() {
		t, err := Parse(hepburnJSON)
		if err != nil {
			panic("tables: embedded hepburn.json: " + err.Error())
		}
		hepburnTables = t
	})
	return hepburnTables
}
