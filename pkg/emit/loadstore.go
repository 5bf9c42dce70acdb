package emit

import (
	"github.com/oisee/rvtrans/pkg/helper"
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func widthFor(op rvenc.OpCode) (width uint8, unsigned bool) {
	switch op {
	case rvenc.LB:
		return 1, false
	case rvenc.LBU:
		return 1, true
	case rvenc.LH:
		return 2, false
	case rvenc.LHU:
		return 2, true
	case rvenc.LW:
		return 4, false
	case rvenc.LWU:
		return 4, true
	case rvenc.LD:
		return 8, false
	case rvenc.SB:
		return 1, false
	case rvenc.SH:
		return 2, false
	case rvenc.SW:
		return 4, false
	case rvenc.SD:
		return 8, false
	}
	return 0, false
}

func effectiveAddr(b ir.Builder, rs1 uint8, imm int64) ir.Temp {
	base := b.ReadGPR(mustGPR(rs1))
	off := b.MovI(imm)
	addr := b.ALU(ir.OpAdd, base, off)
	b.FreeTemp(base)
	b.FreeTemp(off)
	return addr
}

// EmitLoad handles the LOAD group: integer loads address rs1+imm and
// zero/sign-extend per width (spec.md §4.3 "Memory group").
func EmitLoad(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	width, unsigned := widthFor(instr.Op)
	addr := effectiveAddr(b, instr.Rs1, instr.Imm)
	v := b.Load(addr, width, unsigned, ctx.MMUIdx, ctx.PC)
	b.FreeTemp(addr)
	b.WriteGPR(instr.Rd, v)
	b.FreeTemp(v)
}

// EmitStore handles the STORE group.
func EmitStore(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	width, _ := widthFor(instr.Op)
	addr := effectiveAddr(b, instr.Rs1, instr.Imm)
	v := b.ReadGPR(mustGPR(instr.Rs2))
	b.Store(addr, v, width, ctx.MMUIdx, ctx.PC)
	b.FreeTemp(addr)
	b.FreeTemp(v)
}

// emitFSGuard loads mstatus, masks the FS field (bits 14:13), and branches
// around an Illegal-Instruction raise when it reads zero (extension
// disabled). Returns once the guard has been emitted; callers continue
// emitting the guarded operation's IR directly afterward (no label is
// exposed since the guard only ever skips a trap, never the op itself).
func emitFSGuard(b ir.Builder, ctx *ir.DecoderContext) {
	status := b.Helper(string(helper.ReadMStatus), nil, true)
	fsMask := b.MovI(0x6000) // bits 14:13
	fsField := b.ALU(ir.OpAnd, status, fsMask)
	b.FreeTemp(fsMask)
	b.FreeTemp(status)

	zero := b.MovI(0)
	enabled := b.ALUCond(ir.CondNE, fsField, zero)
	b.FreeTemp(fsField)
	b.FreeTemp(zero)

	okLbl := b.Label()
	b.BranchCond(enabled, okLbl)
	b.FreeTemp(enabled)
	b.RaiseIllegal(ctx.PC)
	b.Place(okLbl)
}

func fpWidthFor(op rvenc.OpCode) uint8 {
	if op == rvenc.FLD || op == rvenc.FSD {
		return 8
	}
	return 4
}

// EmitFPLoad handles FLW/FLD, guarded on mstatus.FS.
func EmitFPLoad(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	emitFSGuard(b, ctx)
	addr := effectiveAddr(b, instr.Rs1, instr.Imm)
	v := b.Load(addr, fpWidthFor(instr.Op), true, ctx.MMUIdx, ctx.PC)
	b.FreeTemp(addr)
	b.WriteFPR(instr.Rd, v)
	b.FreeTemp(v)
}

// EmitFPStore handles FSW/FSD, guarded on mstatus.FS.
func EmitFPStore(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	emitFSGuard(b, ctx)
	addr := effectiveAddr(b, instr.Rs1, instr.Imm)
	v := b.ReadFPR(instr.Rs2)
	b.Store(addr, v, fpWidthFor(instr.Op), ctx.MMUIdx, ctx.PC)
	b.FreeTemp(addr)
	b.FreeTemp(v)
}
