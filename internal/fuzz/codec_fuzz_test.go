package fuzztests

import (
	"bytes"
	"testing"

	"borrowck/internal/check"
	"borrowck/internal/mir"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func FuzzDecodeUnit(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		unit, err := mir.DecodeUnit(bytes.NewReader(input))
		if err != nil {
			return
		}
		// декодер принял вход: он обязан выдержать валидацию без паники
		_ = mir.Validate(unit.Module, unit.Types)
	})
}

func FuzzAnalyzeDecodedUnit(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		}

		unit, err := mir.DecodeUnit(bytes.NewReader(input))
		if err != nil {
			return
		}
		if err := mir.Validate(unit.Module, unit.Types); err != nil {
			return
		}
		// валидный модуль анализируется без паники при любом содержимом
		for _, fn := range unit.Module.SortedFuncs() {
			_ = check.Func(fn, unit.Types, check.Options{MaxDiagnostics: 64})
		}
	})
}
