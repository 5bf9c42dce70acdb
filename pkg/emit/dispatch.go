// Package emit is the IR emitter: one file per decoded instruction
// group, each a switch on rvenc.OpCode dispatching to a handler, mirroring
// the single large switch in the teacher's pkg/cpu/exec.Exec, split by
// decode family instead of kept in one function (spec.md §4.3's "a family
// of routines, one per major decoded group").
package emit

import (
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvdec"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func isArithGroup(op rvenc.OpCode) bool {
	return op >= rvenc.ADDI && op <= rvenc.REMUW
}

func isBranchGroup(op rvenc.OpCode) bool {
	return op >= rvenc.BEQ && op <= rvenc.BGEU
}

func isLoadGroup(op rvenc.OpCode) bool {
	return op >= rvenc.LB && op <= rvenc.LWU
}

func isStoreGroup(op rvenc.OpCode) bool {
	return op >= rvenc.SB && op <= rvenc.SD
}

func isSystemGroup(op rvenc.OpCode) bool {
	return op >= rvenc.FENCE && op <= rvenc.SFENCE_VMA
}

func isFPLoadStoreGroup(op rvenc.OpCode) bool {
	return op >= rvenc.FLW && op <= rvenc.FSD
}

// EmitInstruction is the single entry point pkg/tb calls once per decoded
// instruction: it routes instr to the handler for its decoded group and
// reports the resulting control-flow state via ctx.State (defaulting to
// ir.StateNone when the handler doesn't redirect control flow).
func EmitInstruction(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	ctx.State = ir.StateNone

	switch {
	case instr.Op == rvenc.ILLEGAL:
		b.RaiseIllegal(ctx.PC)
		ctx.State = ir.StateBranch
	case instr.Op == rvenc.LUI:
		v := b.MovI(instr.Imm)
		b.WriteGPR(instr.Rd, v)
		b.FreeTemp(v)
	case instr.Op == rvenc.AUIPC:
		v := b.MovI(int64(ctx.PC) + instr.Imm)
		b.WriteGPR(instr.Rd, v)
		b.FreeTemp(v)
	case instr.Op == rvenc.JAL:
		EmitJAL(b, ctx, instr)
	case instr.Op == rvenc.JALR:
		EmitJALR(b, ctx, instr)
	case isBranchGroup(instr.Op):
		EmitBranch(b, ctx, instr)
	case isLoadGroup(instr.Op):
		EmitLoad(b, ctx, instr)
	case isStoreGroup(instr.Op):
		EmitStore(b, ctx, instr)
	case isArithGroup(instr.Op):
		EmitArith(b, ctx, instr)
	case isSystemGroup(instr.Op):
		EmitSystem(b, ctx, instr)
	case isFPLoadStoreGroup(instr.Op):
		if instr.Op == rvenc.FLW || instr.Op == rvenc.FLD {
			EmitFPLoad(b, ctx, instr)
		} else {
			EmitFPStore(b, ctx, instr)
		}
	case rvenc.IsAtomic(instr.Op):
		EmitAtomic(b, ctx, instr)
	case rvenc.IsFP(instr.Op):
		EmitFP(b, ctx, instr)
	default:
		b.RaiseIllegal(ctx.PC)
		ctx.State = ir.StateBranch
	}
}

// DecodeAndEmit decodes raw32 (dispatching OP-V's vector-configuration
// encoding before falling through to the general decoders) and emits it.
// raw32 is the fetched 32-bit word: when ctx.RVC is set and its low two
// bits are not 0b11, its low 16 bits are decoded with pkg/rvdec.Decode16,
// otherwise the whole word goes to pkg/rvdec.Decode32. IsVectorCfg only
// matches the 32-bit OP-V major opcode, so a compressed word never takes
// the vector-configuration path.
func DecodeAndEmit(b ir.Builder, ctx *ir.DecoderContext, raw32 uint32) error {
	if IsVectorCfg(raw32) {
		EmitVectorCfg(b, ctx, raw32)
		return nil
	}

	var (
		instr rvenc.Instruction
		err   error
	)
	if ctx.RVC && raw32&0x3 != 0x3 {
		instr, err = rvdec.Decode16(uint16(raw32), ctx.XLen)
	} else {
		instr, err = rvdec.Decode32(raw32, ctx.XLen)
	}
	if err != nil {
		b.RaiseIllegal(ctx.PC)
		ctx.State = ir.StateBranch
		return nil
	}

	ctx.Opcode = raw32
	EmitInstruction(b, ctx, instr)
	return nil
}
