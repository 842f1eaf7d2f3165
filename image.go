package tinybasic

import (
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"
)

//
// Compiled program images.  An image is the program store, the
// symbol table and the native signature, CBOR encoded in canonical
// form so the same program always produces the same bytes.  Loading
// an image skips the compiler, so everything in it is checked before
// any of it replaces the current program
//

const imageFormat = "tinybasic-image-1"

var cborEncMode cbor.EncMode

func init() {

	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR enc mode: %v", err))
	}

	cborEncMode = em
}

func (it *Interpreter) MarshalImage() ([]byte, error) {

	img := image{
		Version: imageFormat,
		Dialect: it.cfg.Dialect,
		Symbols: it.syms.symbols(),
		Natives: it.registry.signature(),
	}

	for _, line := range it.program.Lines() {
		img.Lines = append(img.Lines, imageLine{
			Number: line.Number,
			Source: line.Source,
			Code:   []Word(line.Code),
		})
	}

	return cborEncMode.Marshal(&img)
}

//
// LoadImage replaces the current program with the one in data.  On
// any error the current program and variables are left alone
//

func (it *Interpreter) LoadImage(data []byte) error {

	var img image

	if err := cbor.Unmarshal(data, &img); err != nil {
		return fmt.Errorf("unmarshal image: %w", err)
	}

	if img.Version != imageFormat {
		return fmt.Errorf(EIMAGEVERSION, img.Version, imageFormat)
	}

	if img.Dialect != it.cfg.Dialect {
		return fmt.Errorf(EIMAGEDIALECT, img.Dialect, it.cfg.Dialect)
	}

	if !slices.Equal(img.Natives, it.registry.signature()) {
		return fmt.Errorf(EIMAGENATIVES)
	}

	syms := newSymbolTable(it.cfg.Extended())
	if !syms.restore(img.Symbols) {
		return fmt.Errorf(EIMAGESYMBOLS)
	}

	lines := make([]*Line, 0, len(img.Lines))
	last := 0

	for _, il := range img.Lines {
		if il.Number <= last || il.Number > maxLineNumber {
			return fmt.Errorf(EIMAGEBADLINE, il.Number, EBADLINENUMBER)
		}
		last = il.Number

		code := Code(il.Code)

		if err := code.Validate(it.registry); err != nil {
			return fmt.Errorf(EIMAGEBADLINE, il.Number, err)
		}

		if err := checkSlots(code, len(syms.names)); err != nil {
			return fmt.Errorf(EIMAGEBADLINE, il.Number, err)
		}

		lines = append(lines, &Line{Number: il.Number, Code: code, Source: il.Source})
	}

	//
	// Everything checks out: commit
	//

	it.program.Clear()

	for _, line := range lines {
		if err := it.program.Insert(line); err != nil {
			return err
		}
	}

	it.syms = syms
	it.vm.Reset()

	it.log.Infof("loaded image: %d lines, %d variables", len(lines), len(syms.names))

	return nil
}

//
// Every variable reference must name an allocated slot.  Validate has
// already established that the buffer is well formed, so a linear
// walk over the instruction stream is safe
//

func checkSlots(code Code, nslots int) error {

	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])

		switch op {
		case OpSetVar, OpGetVar, OpInput:
			if code[pc+1] >= Word(nslots) {
				return fmt.Errorf("%s at word %d: bad slot %d", op, pc, uint64(code[pc+1]))
			}
		}

		pc += 1 + opcodeTable[op].Operands
	}

	return nil
}
