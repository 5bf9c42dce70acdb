// Package irtext is a textual stand-in for the real IR-generating back
// end: every Builder call is recorded as a human-readable line instead of
// native code. Used by pkg/emit's and pkg/tb's tests, and by cmd/rvtrans
// as the demo back end, exactly the role the teacher's inst.Disassemble
// and search.disasmSeq play for rendering instruction sequences to text
// for verbose output and test assertions.
package irtext

import (
	"fmt"
	"strings"

	"github.com/oisee/rvtrans/pkg/ir"
)

// Builder implements ir.Builder by appending one text line per call.
type Builder struct {
	lines    []string
	nextTemp ir.Temp
	live     map[ir.Temp]bool
	nextLbl  ir.Label
}

// New returns an empty textual Builder.
func New() *Builder {
	return &Builder{live: make(map[ir.Temp]bool)}
}

// Lines returns the recorded IR text, one entry per emitted op.
func (b *Builder) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String joins Lines with newlines, for quick printing/assertions.
func (b *Builder) String() string {
	return strings.Join(b.lines, "\n")
}

// LiveTemps reports the number of temps allocated via NewTemp that have
// not yet been released via FreeTemp — pkg/tb's temp-leak check reads
// this after every decoded instruction.
func (b *Builder) LiveTemps() int {
	return len(b.live)
}

// IRSize reports the number of ops emitted so far.
func (b *Builder) IRSize() int {
	return len(b.lines)
}

func (b *Builder) emit(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *Builder) NewTemp() ir.Temp {
	t := b.nextTemp
	b.nextTemp++
	b.live[t] = true
	b.emit("t%d = newtemp", t)
	return t
}

func (b *Builder) FreeTemp(t ir.Temp) {
	if !b.live[t] {
		panic(fmt.Sprintf("irtext: double-free or unknown temp t%d", t))
	}
	delete(b.live, t)
	b.emit("free t%d", t)
}

func (b *Builder) MovI(imm int64) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = mov %d", t, imm)
	return t
}

func (b *Builder) MovTemp(src ir.Temp) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = mov t%d", t, src)
	return t
}

func (b *Builder) ReadGPR(n uint8) ir.Temp {
	if n == 0 {
		return b.MovI(0)
	}
	t := b.NewTemp()
	b.emit("t%d = rd_gpr x%d", t, n)
	return t
}

func (b *Builder) WriteGPR(n uint8, v ir.Temp) {
	if n == 0 {
		b.emit("nop ; write to x0 elided")
		return
	}
	b.emit("wr_gpr x%d, t%d", n, v)
}

func (b *Builder) ReadFPR(n uint8) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = rd_fpr f%d", t, n)
	return t
}

func (b *Builder) WriteFPR(n uint8, v ir.Temp) {
	b.emit("wr_fpr f%d, t%d", n, v)
}

var aluMnemonic = map[ir.ALUOp]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
	ir.OpShl: "shl", ir.OpShr: "shr", ir.OpSar: "sar", ir.OpMul: "mul",
	ir.OpMulHS: "mulhs", ir.OpMulHU: "mulhu", ir.OpDiv: "div", ir.OpDivU: "divu",
	ir.OpRem: "rem", ir.OpRemU: "remu", ir.OpSetCond: "setcond",
}

func (b *Builder) ALU(op ir.ALUOp, a, c ir.Temp) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = %s t%d, t%d", t, aluMnemonic[op], a, c)
	return t
}

var condMnemonic = map[ir.Cond]string{
	ir.CondEQ: "eq", ir.CondNE: "ne", ir.CondLT: "lt", ir.CondGE: "ge",
	ir.CondLTU: "ltu", ir.CondGEU: "geu",
}

func (b *Builder) ALUCond(cond ir.Cond, a, c ir.Temp) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = setcond.%s t%d, t%d", t, condMnemonic[cond], a, c)
	return t
}

func (b *Builder) Select(pred, onTrue, onFalse ir.Temp) ir.Temp {
	t := b.NewTemp()
	b.emit("t%d = select t%d, t%d, t%d", t, pred, onTrue, onFalse)
	return t
}

func (b *Builder) Load(addr ir.Temp, width uint8, unsigned bool, mmuidx int, pc uint64) ir.Temp {
	b.emit("setpc %#x", pc)
	t := b.NewTemp()
	sign := "s"
	if unsigned {
		sign = "u"
	}
	b.emit("t%d = ld%d%s t%d, mmu%d", t, width, sign, addr, mmuidx)
	return t
}

func (b *Builder) Store(addr, v ir.Temp, width uint8, mmuidx int, pc uint64) {
	b.emit("setpc %#x", pc)
	b.emit("st%d t%d, t%d, mmu%d", width, addr, v, mmuidx)
}

func (b *Builder) Label() ir.Label {
	l := b.nextLbl
	b.nextLbl++
	return l
}

func (b *Builder) Place(l ir.Label) {
	b.emit("L%d:", l)
}

func (b *Builder) BranchCond(pred ir.Temp, target ir.Label) {
	b.emit("br_cond t%d, L%d", pred, target)
}

func (b *Builder) Branch(target ir.Label) {
	b.emit("br L%d", target)
}

func (b *Builder) GotoTB(n int, destPC uint64) {
	b.emit("goto_tb %d, %#x", n, destPC)
}

func (b *Builder) ExitTB(pc *ir.Temp) {
	if pc != nil {
		b.emit("exit_tb t%d", *pc)
		return
	}
	b.emit("exit_tb")
}

func (b *Builder) Helper(name string, args []ir.Temp, returns bool) ir.Temp {
	argStrs := make([]string, len(args))
	for i, a := range args {
		argStrs[i] = fmt.Sprintf("t%d", a)
	}
	joined := strings.Join(argStrs, ", ")
	if !returns {
		b.emit("call %s(%s)", name, joined)
		return 0
	}
	t := b.NewTemp()
	b.emit("t%d = call %s(%s)", t, name, joined)
	return t
}

func (b *Builder) RaiseIllegal(pc uint64) {
	b.emit("raise illegal, pc=%#x", pc)
}

func (b *Builder) RaiseMisaligned(pc uint64, badAddr uint64) {
	b.emit("raise misaligned, pc=%#x, addr=%#x", pc, badAddr)
}

func (b *Builder) RaiseDebug(pc uint64) {
	b.emit("raise debug, pc=%#x", pc)
}
