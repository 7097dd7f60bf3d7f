
// Package fuzztests houses Go fuzz harnesses that exercise the module
// decode path (bytes -> unit -> validation -> analysis). Its goal is to
// smoke test robustness and guard against panics or allocator explosions
// on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые скармливают байты
// декодеру и, если модуль прошёл валидацию, прогоняют его через анализ.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/mir, internal/check, internal/diag.

package fuzztests
