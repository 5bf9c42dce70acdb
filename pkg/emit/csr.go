package emit

import (
	"github.com/oisee/rvtrans/pkg/helper"
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

// EmitSystem handles FENCE/FENCE.I/ECALL/EBREAK/xRET/WFI/SFENCE.VMA and
// the CSRRW/S/C[I] family (spec.md §4.3 "CSR / SYSTEM group").
func EmitSystem(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	switch instr.Op {
	case rvenc.FENCE:
		ctx.State = ir.StateNone
	case rvenc.FENCE_I:
		b.Helper(string(helper.FenceI), nil, false)
		ctx.State = ir.StateStop
	case rvenc.ECALL:
		pcT := b.MovI(int64(ctx.PC))
		b.Helper(string(helper.RaiseException), []ir.Temp{pcT}, false)
		b.FreeTemp(pcT)
		ctx.State = ir.StateBranch
	case rvenc.EBREAK:
		b.RaiseDebug(ctx.PC)
		ctx.State = ir.StateBranch
	case rvenc.SRET:
		b.Helper(string(helper.SRet), nil, false)
		ctx.State = ir.StateBranch
	case rvenc.MRET:
		b.Helper(string(helper.MRet), nil, false)
		ctx.State = ir.StateBranch
	case rvenc.WFI:
		// ctx.NextPC (already pc+instruction length, set by the caller
		// before dispatch) becomes the block's resume pc via the builder
		// loop's own bookkeeping; finalize emits the single StateStop
		// terminator once decoding stops.
		b.Helper(string(helper.WFI), nil, false)
		ctx.State = ir.StateStop
	case rvenc.SFENCE_VMA:
		addr := b.ReadGPR(mustGPR(instr.Rs1))
		b.Helper(string(helper.TLBFlush), []ir.Temp{addr}, false)
		b.FreeTemp(addr)
		ctx.State = ir.StateStop
	case rvenc.CSRRW, rvenc.CSRRS, rvenc.CSRRC, rvenc.CSRRWI, rvenc.CSRRSI, rvenc.CSRRCI:
		emitCSR(b, ctx, instr)
	default:
		b.RaiseIllegal(ctx.PC)
		ctx.State = ir.StateBranch
	}
}

func csrHelperFor(op rvenc.OpCode) helper.Name {
	switch op {
	case rvenc.CSRRW:
		return helper.CSRRW
	case rvenc.CSRRS:
		return helper.CSRRS
	case rvenc.CSRRC:
		return helper.CSRRC
	case rvenc.CSRRWI:
		return helper.CSRRWImm
	case rvenc.CSRRSI:
		return helper.CSRRSImm
	default: // CSRRCI
		return helper.CSRRCImm
	}
}

// emitCSR emits a CSRRW/S/C[I] as a call to the matching helper, writes
// the prior CSR value to rd, and terminates the TB since a CSR write may
// change privilege or address mapping affecting subsequent decode.
func emitCSR(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	csr := b.MovI(int64(instr.Csr))

	var src ir.Temp
	switch instr.Op {
	case rvenc.CSRRWI, rvenc.CSRRSI, rvenc.CSRRCI:
		src = b.MovI(instr.Imm) // decoder copies the 5-bit zimm into Imm
	default:
		src = b.ReadGPR(mustGPR(instr.Rs1))
	}

	prior := b.Helper(string(csrHelperFor(instr.Op)), []ir.Temp{csr, src}, true)
	b.FreeTemp(csr)
	b.FreeTemp(src)
	b.WriteGPR(instr.Rd, prior)
	b.FreeTemp(prior)

	ctx.State = ir.StateStop
}
