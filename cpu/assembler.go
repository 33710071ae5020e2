// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the CHIP-8 system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word)
		return
	}

	text := word
	base := 0
	if text[0] == '$' {
		text = text[1:]
		base = 16
	}

	v64, err := strconv.ParseInt(text, base, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)

	return
}

// rangeOf returns the value of a word, limited to [lo, hi].
func (asm *Assembler) rangeOf(word string, lo, hi int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value < lo || value > hi {
		err = fmt.Errorf("%w: %v", ErrRangeInvalid, word)
		return
	}

	return
}

// byteOf returns a byte value. Negative values are two's complement.
func (asm *Assembler) byteOf(word string) (value byte, err error) {
	v, err := asm.rangeOf(word, -0x80, 0xff)
	value = byte(v)
	return
}

// isLabel returns true if the word could be a label.
func isLabel(word string) bool {
	for n, r := range word {
		switch {
		case r == '_', unicode.IsLetter(r):
		case n > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return len(word) > 0
}

// addrOf returns an address, or the label to be linked.
func (asm *Assembler) addrOf(word string) (addr uint16, label string, err error) {
	value, err := asm.rangeOf(word, 0, memory.ADDRESS_MASK)
	if err == nil {
		addr = uint16(value)
		return
	}

	if _, is_number := err.(ErrParseNumber); is_number && isLabel(word) {
		err = nil
		label = word
	}

	return
}

// regOf returns the index of a V register.
func regOf(word string) (index byte, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}

	value, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}

	index = byte(value)
	ok = true

	return
}

// getReg gets a register operand.
func getReg(word string) (index byte, err error) {
	index, ok := regOf(word)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// splitWords splits a line into words, separated by whitespace or commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique to each expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next opcode.
func (asm *Assembler) currentAddr() uint16 {
	if len(asm.Opcode) == 0 {
		return memory.PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + uint16(len(last.Data))
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if int(asm.currentAddr()) > memory.MEMORY_SIZE {
		err = ErrProgramTooLarge
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > memory.ADDRESS_MASK {
			err = fmt.Errorf("%w: %v", ErrRangeInvalid, label)
			return
		}
		if !op.IsCode {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Data[0] |= byte(addr>>8) & 0xF
		op.Data[1] |= byte(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// argCount verifies the number of operands.
func argCount(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// fxMap maps the 'ld <special> vx' destinations to Fx opcodes.
var fxMap = map[string]byte{
	"dt":  0x15,
	"st":  0x18,
	"f":   0x29,
	"b":   0x33,
	"[i]": 0x55,
}

// vxMap maps the 'ld vx <special>' sources to Fx opcodes.
var vxMap = map[string]byte{
	"dt":  0x07,
	"k":   0x0A,
	"[i]": 0x65,
}

// aluMap maps the register to register 8xy_ operations.
var aluMap = map[string]byte{
	"or":   0x1,
	"and":  0x2,
	"xor":  0x3,
	"sub":  0x5,
	"subn": 0x7,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var is_code bool
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Data: data, IsCode: is_code, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	emit := func(code Code) {
		data = []byte{byte(code >> 8), byte(code)}
		is_code = true
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	var x, y byte
	var kk byte
	var nnn uint16

	switch mnemonic {
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeMissing
			return
		}
		for _, arg := range args {
			kk, err = asm.byteOf(arg)
			if err != nil {
				return
			}
			data = append(data, kk)
		}
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeMissing
			return
		}
		for _, arg := range args {
			var value int
			value, err = asm.rangeOf(arg, -0x8000, 0xffff)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	case ".align":
		err = argCount(args, 0)
		if err != nil {
			return
		}
		if asm.currentAddr()%PC_STEP != 0 {
			data = []byte{0}
		}
	case "cls":
		err = argCount(args, 0)
		emit(0x00E0)
	case "ret":
		err = argCount(args, 0)
		emit(0x00EE)
	case "sys", "call", "jp":
		h := map[string]byte{"sys": 0x0, "call": 0x2, "jp": 0x1}[mnemonic]
		if mnemonic == "jp" && len(args) == 2 {
			if strings.ToLower(args[0]) != "v0" {
				err = fmt.Errorf("%w: %v", ErrRegisterInvalid, args[0])
				return
			}
			h = 0xB
			args = args[1:]
		}
		err = argCount(args, 1)
		if err != nil {
			return
		}
		nnn, label, err = asm.addrOf(args[0])
		if err != nil {
			return
		}
		emit(makeCodeNNN(h, nnn))
	case "se", "sne":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		if y, ok := regOf(args[1]); ok {
			emit(MakeCode(map[string]byte{"se": 0x5, "sne": 0x9}[mnemonic], x, y, 0))
			return
		}
		kk, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		emit(makeCodeXKK(map[string]byte{"se": 0x3, "sne": 0x4}[mnemonic], x, kk))
	case "ld":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		dst := strings.ToLower(args[0])
		src := strings.ToLower(args[1])
		if dst == "i" {
			nnn, label, err = asm.addrOf(args[1])
			if err != nil {
				return
			}
			emit(makeCodeNNN(0xA, nnn))
			return
		}
		if fx, ok := fxMap[dst]; ok {
			x, err = getReg(args[1])
			if err != nil {
				return
			}
			emit(makeCodeXKK(0xF, x, fx))
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		if fx, ok := vxMap[src]; ok {
			emit(makeCodeXKK(0xF, x, fx))
			return
		}
		if y, ok := regOf(src); ok {
			emit(MakeCode(0x8, x, y, 0x0))
			return
		}
		kk, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		emit(makeCodeXKK(0x6, x, kk))
	case "add":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		if strings.ToLower(args[0]) == "i" {
			x, err = getReg(args[1])
			if err != nil {
				return
			}
			emit(makeCodeXKK(0xF, x, 0x1E))
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		if y, ok := regOf(args[1]); ok {
			emit(MakeCode(0x8, x, y, 0x4))
			return
		}
		kk, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		emit(makeCodeXKK(0x7, x, kk))
	case "or", "and", "xor", "sub", "subn":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		y, err = getReg(args[1])
		if err != nil {
			return
		}
		emit(MakeCode(0x8, x, y, aluMap[mnemonic]))
	case "shr", "shl":
		if len(args) == 1 {
			args = append(args, args[0])
		}
		err = argCount(args, 2)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		y, err = getReg(args[1])
		if err != nil {
			return
		}
		emit(MakeCode(0x8, x, y, map[string]byte{"shr": 0x6, "shl": 0xE}[mnemonic]))
	case "rnd":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		kk, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		emit(makeCodeXKK(0xC, x, kk))
	case "drw":
		err = argCount(args, 3)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		y, err = getReg(args[1])
		if err != nil {
			return
		}
		var n int
		n, err = asm.rangeOf(args[2], 0, 0xF)
		if err != nil {
			return
		}
		emit(MakeCode(0xD, x, y, byte(n)))
	case "skp", "sknp":
		err = argCount(args, 1)
		if err != nil {
			return
		}
		x, err = getReg(args[0])
		if err != nil {
			return
		}
		emit(makeCodeXKK(0xE, x, map[string]byte{"skp": 0x9E, "sknp": 0xA1}[mnemonic]))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
