package emit

import (
	"github.com/oisee/rvtrans/pkg/helper"
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

// instrLen returns the length in bytes of the instruction that produced
// ctx.Opcode: 2 when the compressed extension decoded it, else 4.
func instrLen(ctx *ir.DecoderContext) uint64 {
	if ctx.RVC && ctx.Opcode&0x3 != 0x3 {
		return 2
	}
	return 4
}

func condFor(op rvenc.OpCode) ir.Cond {
	switch op {
	case rvenc.BEQ:
		return ir.CondEQ
	case rvenc.BNE:
		return ir.CondNE
	case rvenc.BLT:
		return ir.CondLT
	case rvenc.BGE:
		return ir.CondGE
	case rvenc.BLTU:
		return ir.CondLTU
	default: // BGEU
		return ir.CondGEU
	}
}

// EmitBranch handles the conditional-branch group (spec.md §4.3 "Control
// flow group"). Both successors are chained with goto_tb, slot 1 for the
// not-taken fallthrough and slot 0 for the taken target, per spec.md
// §4.3's goto_tb(1, pc+instr_len) / goto_tb(0, pc+bimm) convention.
func EmitBranch(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	target := ctx.PC + uint64(instr.Imm)
	fallthroughPC := ctx.PC + instrLen(ctx)

	a := b.ReadGPR(mustGPR(instr.Rs1))
	c := b.ReadGPR(mustGPR(instr.Rs2))
	pred := b.ALUCond(condFor(instr.Op), a, c)
	b.FreeTemp(a)
	b.FreeTemp(c)

	taken := b.Label()
	b.BranchCond(pred, taken)
	b.FreeTemp(pred)

	b.GotoTB(1, fallthroughPC)

	b.Place(taken)
	if !ctx.RVC && target&0x3 != 0 {
		b.RaiseMisaligned(ctx.PC, target)
	} else {
		b.GotoTB(0, target)
	}

	ctx.State = ir.StateBranch
}

// EmitJAL handles JAL: rd = pc + instr_len, pc = pc + imm. The target is
// known at decode time, so it chains like a branch's taken arm.
func EmitJAL(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	target := ctx.PC + uint64(instr.Imm)
	if instr.Rd != 0 {
		link := b.MovI(int64(ctx.PC + instrLen(ctx)))
		b.WriteGPR(instr.Rd, link)
		b.FreeTemp(link)
	}
	if !ctx.RVC && target&0x3 != 0 {
		b.RaiseMisaligned(ctx.PC, target)
	} else {
		b.GotoTB(0, target)
	}
	ctx.State = ir.StateBranch
}

// EmitJALR handles JALR: target = (rs1 + imm) & ~1, computed at runtime,
// so it cannot be chained with GotoTB (spec.md §4.3: "the target address
// is data-dependent; this is the one control-transfer form that always
// exits uncained"). The target is computed from rs1 before rd is written
// with the link value, so rd may alias rs1.
func EmitJALR(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	base := b.ReadGPR(mustGPR(instr.Rs1))
	imm := b.MovI(instr.Imm)
	sum := b.ALU(ir.OpAdd, base, imm)
	b.FreeTemp(base)
	b.FreeTemp(imm)

	maskT := b.MovI(^int64(1))
	target := b.ALU(ir.OpAnd, sum, maskT)
	b.FreeTemp(maskT)
	b.FreeTemp(sum)

	if instr.Rd != 0 {
		link := b.MovI(int64(ctx.PC + instrLen(ctx)))
		b.WriteGPR(instr.Rd, link)
		b.FreeTemp(link)
	}

	if !ctx.RVC {
		zeroImm := b.MovI(0x3)
		low := b.ALU(ir.OpAnd, target, zeroImm)
		b.FreeTemp(zeroImm)
		zero := b.MovI(0)
		isMisaligned := b.ALUCond(ir.CondNE, low, zero)
		b.FreeTemp(zero)
		b.FreeTemp(low)

		misLbl := b.Label()
		b.BranchCond(isMisaligned, misLbl)
		b.FreeTemp(isMisaligned)

		b.ExitTB(&target)

		// target is data-dependent, so unlike the branch/JAL forms the
		// bad address isn't known until runtime; RaiseExceptionBadAddr
		// takes it as a temp rather than an immediate.
		b.Place(misLbl)
		pcT := b.MovI(int64(ctx.PC))
		b.Helper(string(helper.RaiseExceptionBadAddr), []ir.Temp{pcT, target}, false)
		b.FreeTemp(pcT)
	} else {
		b.ExitTB(&target)
	}
	b.FreeTemp(target)

	ctx.State = ir.StateBranch
}
