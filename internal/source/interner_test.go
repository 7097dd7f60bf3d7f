package source

import (
	"fmt"
	"testing"
)

// Базовые тесты функциональности

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	// NoStringID должен быть зарезервирован для пустой строки
	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID должен возвращать пустую строку, получили: %q, ok=%v", s, ok)
	}

	// Intern новой строки
	id1 := interner.Intern("hello")
	if id1 == NoStringID {
		t.Error("Intern не должен возвращать NoStringID для непустой строки")
	}

	// Повторный Intern той же строки должен вернуть тот же ID
	id2 := interner.Intern("hello")
	if id1 != id2 {
		t.Errorf("Intern должен возвращать одинаковые ID для одинаковых строк: %d != %d", id1, id2)
	}

	// Lookup должен вернуть исходную строку
	if s, ok := interner.Lookup(id1); !ok || s != "hello" {
		t.Errorf("Lookup вернул неверную строку: %q, ok=%v", s, ok)
	}

	// Intern другой строки должен вернуть другой ID
	id3 := interner.Intern("world")
	if id3 == id1 {
		t.Error("Разные строки должны иметь разные ID")
	}

	// Len должен учитывать NoStringID
	if interner.Len() != 3 { // "", "hello", "world"
		t.Errorf("Len должен быть 3, получили: %d", interner.Len())
	}
}

func TestInternerHas(t *testing.T) {
	interner := NewInterner()

	if !interner.Has(NoStringID) {
		t.Error("Has должен возвращать true для NoStringID")
	}

	id := interner.Intern("test")
	if !interner.Has(id) {
		t.Error("Has должен возвращать true для валидного ID")
	}

	// Проверка несуществующего ID
	if interner.Has(StringID(9999)) {
		t.Error("Has должен возвращать false для несуществующего ID")
	}
}

func TestInternerSnapshot(t *testing.T) {
	interner := NewInterner()

	interner.Intern("hello")
	interner.Intern("world")

	snapshot := interner.Snapshot()
	if len(snapshot) != 3 { // "", "hello", "world"
		t.Errorf("Snapshot должен содержать 3 элемента, получили: %d", len(snapshot))
	}

	// Проверка, что это копия (изменение snapshot не влияет на interner)
	snapshot[0] = "modified"
	if s, _ := interner.Lookup(NoStringID); s != "" {
		t.Error("Snapshot должен быть копией, а не ссылкой на внутренние данные")
	}
}

func TestInternerFromSnapshot(t *testing.T) {
	orig := NewInterner()
	wantIDs := make(map[string]StringID)
	for _, s := range []string{"x", "counter", "self.items", "x"} {
		wantIDs[s] = orig.Intern(s)
	}

	rebuilt, err := NewInternerFromSnapshot(orig.Snapshot())
	if err != nil {
		t.Fatalf("NewInternerFromSnapshot вернул ошибку: %v", err)
	}

	// ID в восстановленном интернере должны совпадать с исходными
	for s, want := range wantIDs {
		if got := rebuilt.Intern(s); got != want {
			t.Errorf("ID для %q: получили %d, ожидали %d", s, got, want)
		}
	}
	if rebuilt.Len() != orig.Len() {
		t.Errorf("Len после восстановления: %d != %d", rebuilt.Len(), orig.Len())
	}
}

func TestInternerFromSnapshotRejectsBadTables(t *testing.T) {
	cases := []struct {
		name  string
		table []string
	}{
		{name: "empty table", table: nil},
		{name: "missing sentinel", table: []string{"x"}},
		{name: "duplicate entry", table: []string{"", "a", "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewInternerFromSnapshot(tc.table); err == nil {
				t.Error("ожидали ошибку для некорректной таблицы строк")
			}
		})
	}
}

func TestInternerManyStrings(t *testing.T) {
	interner := NewInterner()

	ids := make([]StringID, 0, 1000)
	for i := 0; i < 1000; i++ {
		ids = append(ids, interner.Intern(fmt.Sprintf("s_%d", i)))
	}

	for i, id := range ids {
		want := fmt.Sprintf("s_%d", i)
		if s, ok := interner.Lookup(id); !ok || s != want {
			t.Fatalf("Lookup(%d) = %q, ожидали %q", id, s, want)
		}
	}
}
