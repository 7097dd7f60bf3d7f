package source

import (
	"fmt"
	"slices"
)

type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings behind dense ids. The interchange codec uses
// it as the string table: names are interned during encoding, the snapshot is
// written to the file, and decoding rebuilds an identical table so ids stored
// in the payload stay valid.
type Interner struct {
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""}, // NoStringID → пустая строка
		index: map[string]StringID{"": 0},
	}
}

// NewInternerFromSnapshot rebuilds an interner from a table previously
// produced by Snapshot. Entry 0 must be the empty string and entries must be
// unique, otherwise ids recorded against the original table would remap.
func NewInternerFromSnapshot(table []string) (*Interner, error) {
	if len(table) == 0 || table[0] != "" {
		return nil, fmt.Errorf("string table must start with an empty sentinel entry")
	}
	in := &Interner{
		byID:  make([]string, 0, len(table)),
		index: make(map[string]StringID, len(table)),
	}
	for i, s := range table {
		if _, dup := in.index[s]; dup && i > 0 {
			return nil, fmt.Errorf("string table entry %d duplicates %q", i, s)
		}
		in.byID = append(in.byID, s)
		in.index[s] = StringID(uint32(i))
	}
	return in, nil
}

// Intern вставляет строку в иннер и возвращает её ID.
// Если строка уже есть, возвращает её ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}

	// Создаём собственную копию строки, чтобы не зависеть от исходного буфера.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup возвращает строку по ID.
// Если ID не валиден, возвращает пустую строку и false.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// Has проверяет, валиден ли ID.
func (i *Interner) Has(id StringID) bool {
	return int(id) >= 0 && int(id) < len(i.byID)
}

// Len возвращает количество строк в иннер.
// NoStringID тоже учитывается. Не может быть меньше 1.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot возвращает копию всех строк в иннер.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
