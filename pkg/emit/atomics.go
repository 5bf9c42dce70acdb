package emit

import (
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func atomicWidth(op rvenc.OpCode) uint8 {
	switch op {
	case rvenc.LR_D, rvenc.SC_D, rvenc.AMOSWAP_D, rvenc.AMOADD_D, rvenc.AMOXOR_D,
		rvenc.AMOAND_D, rvenc.AMOOR_D, rvenc.AMOMIN_D, rvenc.AMOMAX_D,
		rvenc.AMOMINU_D, rvenc.AMOMAXU_D:
		return 8
	default:
		return 4
	}
}

// EmitAtomic lowers the A-extension to non-atomic load-then-store
// sequences, per spec.md §4.3's documented simplification: LR performs a
// plain load, SC performs a plain store and always reports success (0),
// and AMOxxx performs load/op/store-back and returns the pre-op value.
// This is not atomic on a real multi-hart guest; pkg/emit intentionally
// carries the hazard forward rather than silently pretending otherwise
// (see the open question recorded for this group).
func EmitAtomic(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	width := atomicWidth(instr.Op)
	addr := b.ReadGPR(mustGPR(instr.Rs1))

	switch instr.Op {
	case rvenc.LR_W, rvenc.LR_D:
		v := b.Load(addr, width, false, ctx.MMUIdx, ctx.PC)
		b.WriteGPR(instr.Rd, v)
		b.FreeTemp(v)
	case rvenc.SC_D, rvenc.SC_W:
		v := b.ReadGPR(mustGPR(instr.Rs2))
		b.Store(addr, v, width, ctx.MMUIdx, ctx.PC)
		b.FreeTemp(v)
		zero := b.MovI(0)
		b.WriteGPR(instr.Rd, zero)
		b.FreeTemp(zero)
	default:
		emitAMOArith(b, ctx, instr, addr, width)
	}
	b.FreeTemp(addr)
}

// amoALUOp maps the remaining AMOxxx ops (swap and min/max are handled
// separately by their callers) to the binary primitive applied to the
// loaded value and rs2.
func amoALUOp(op rvenc.OpCode) ir.ALUOp {
	switch op {
	case rvenc.AMOXOR_W, rvenc.AMOXOR_D:
		return ir.OpXor
	case rvenc.AMOAND_W, rvenc.AMOAND_D:
		return ir.OpAnd
	case rvenc.AMOOR_W, rvenc.AMOOR_D:
		return ir.OpOr
	default: // AMOADD_W, AMOADD_D
		return ir.OpAdd
	}
}

func isAmoMinMax(op rvenc.OpCode) (cond ir.Cond, isMax bool, ok bool) {
	switch op {
	case rvenc.AMOMIN_W, rvenc.AMOMIN_D:
		return ir.CondLT, false, true
	case rvenc.AMOMAX_W, rvenc.AMOMAX_D:
		return ir.CondGE, true, true
	case rvenc.AMOMINU_W, rvenc.AMOMINU_D:
		return ir.CondLTU, false, true
	case rvenc.AMOMAXU_W, rvenc.AMOMAXU_D:
		return ir.CondGEU, true, true
	}
	return 0, false, false
}

func emitAMOArith(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction, addr ir.Temp, width uint8) {
	pre := b.Load(addr, width, false, ctx.MMUIdx, ctx.PC)
	rhs := b.ReadGPR(mustGPR(instr.Rs2))

	if cond, _, ok := isAmoMinMax(instr.Op); ok {
		// AMOMIN/AMOMAX family: compare, branch to done on failure, else store
		// the replacement; done always writes rd = pre-op value.
		pred := b.ALUCond(cond, pre, rhs)
		done := b.Label()
		b.BranchCond(pred, done)
		b.FreeTemp(pred)
		b.Store(addr, rhs, width, ctx.MMUIdx, ctx.PC)
		b.Place(done)
		b.FreeTemp(rhs)
		b.WriteGPR(instr.Rd, pre)
		b.FreeTemp(pre)
		return
	}

	if instr.Op == rvenc.AMOSWAP_W || instr.Op == rvenc.AMOSWAP_D {
		b.Store(addr, rhs, width, ctx.MMUIdx, ctx.PC)
		b.FreeTemp(rhs)
		b.WriteGPR(instr.Rd, pre)
		b.FreeTemp(pre)
		return
	}

	result := b.ALU(amoALUOp(instr.Op), pre, rhs)
	b.FreeTemp(rhs)
	b.Store(addr, result, width, ctx.MMUIdx, ctx.PC)
	b.FreeTemp(result)
	b.WriteGPR(instr.Rd, pre)
	b.FreeTemp(pre)
}
