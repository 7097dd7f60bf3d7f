package fuzztests

import (
	"bytes"
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/source"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

func addCorpusSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("not a module"))

	// валидный модуль даёт мутатору осмысленную основу
	encoded := encodeSeedUnit()
	f.Add(encoded)

	// усечённые и испорченные варианты попадают в ветки ошибок декодера
	if len(encoded) > 2 {
		f.Add(clampSeed(encoded[:len(encoded)/2]))
		flipped := append([]byte(nil), encoded...)
		flipped[len(flipped)/3] ^= 0xff
		f.Add(clampSeed(flipped))
	}
}

// encodeSeedUnit builds a small module with a move conflict so decoded
// seeds reach the analysis path, not just the decoder.
func encodeSeedUnit() []byte {
	u := mir.NewUnit("fuzzseed")
	fileID := u.Files.AddVirtual("seed.sg", []byte("let x = 1;\nlet t = x;\nlet y = x;\n"))
	intT := u.Types.Builtins().Int

	sp := func(start, end uint32) source.Span {
		return source.Span{File: fileID, Start: start, End: end}
	}

	b := mir.NewFuncBuilder(0, "main", u.Types.Builtins().Unit)
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intT, Name: "x", Mutable: true, Span: sp(4, 5)})
	tl := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intT, Name: "t", Span: sp(15, 16)})
	y := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intT, Name: "y", Span: sp(26, 27)})
	b.Emit(&mir.Instr{Kind: mir.InstrAssign, Span: sp(0, 9),
		Assign: mir.AssignInstr{Dst: mir.LocalPlace(x), Src: mir.UseOf(mir.IntConst(1, intT))}})
	b.Emit(&mir.Instr{Kind: mir.InstrAssign, Span: sp(11, 20),
		Assign: mir.AssignInstr{Dst: mir.LocalPlace(tl), Src: mir.UseOf(mir.MoveOf(mir.LocalPlace(x), intT))}})
	b.Emit(&mir.Instr{Kind: mir.InstrAssign, Span: sp(22, 31),
		Assign: mir.AssignInstr{Dst: mir.LocalPlace(y), Src: mir.UseOf(mir.CopyOf(mir.LocalPlace(x), intT))}})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	u.Module.Add(b.Finish())

	var buf bytes.Buffer
	if err := mir.EncodeUnit(&buf, u); err != nil {
		return nil
	}
	return clampSeed(buf.Bytes())
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
