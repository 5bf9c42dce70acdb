package emit

import (
	"math"

	"github.com/oisee/rvtrans/pkg/helper"
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

// binHelper maps a two-operand FP opcode to its named helper (spec.md
// §4.3: "Most FP ops are emitted as calls into helpers named by operation
// and width").
var binHelper = map[rvenc.OpCode]helper.Name{
	rvenc.FADD_S: helper.FAddS, rvenc.FSUB_S: helper.FSubS, rvenc.FMUL_S: helper.FMulS, rvenc.FDIV_S: helper.FDivS,
	rvenc.FMIN_S: helper.FMinS, rvenc.FMAX_S: helper.FMaxS,
	rvenc.FEQ_S: helper.FEqS, rvenc.FLT_S: helper.FLtS, rvenc.FLE_S: helper.FLeS,
	rvenc.FADD_D: helper.FAddD, rvenc.FSUB_D: helper.FSubD, rvenc.FMUL_D: helper.FMulD, rvenc.FDIV_D: helper.FDivD,
	rvenc.FMIN_D: helper.FMinD, rvenc.FMAX_D: helper.FMaxD,
	rvenc.FEQ_D: helper.FEqD, rvenc.FLT_D: helper.FLtD, rvenc.FLE_D: helper.FLeD,
}

var unaryHelper = map[rvenc.OpCode]helper.Name{
	rvenc.FSQRT_S: helper.FSqrtS, rvenc.FSQRT_D: helper.FSqrtD,
	rvenc.FCLASS_S: helper.FClassS, rvenc.FCLASS_D: helper.FClassD,
	rvenc.FCVT_W_S: helper.FCvtWS, rvenc.FCVT_WU_S: helper.FCvtWUS, rvenc.FCVT_L_S: helper.FCvtLS, rvenc.FCVT_LU_S: helper.FCvtLUS,
	rvenc.FCVT_S_W: helper.FCvtSW, rvenc.FCVT_S_WU: helper.FCvtSWU, rvenc.FCVT_S_L: helper.FCvtSL, rvenc.FCVT_S_LU: helper.FCvtSLU,
	rvenc.FCVT_W_D: helper.FCvtWD, rvenc.FCVT_WU_D: helper.FCvtWUD, rvenc.FCVT_L_D: helper.FCvtLD, rvenc.FCVT_LU_D: helper.FCvtLUD,
	rvenc.FCVT_D_W: helper.FCvtDW, rvenc.FCVT_D_WU: helper.FCvtDWU, rvenc.FCVT_D_L: helper.FCvtDL, rvenc.FCVT_D_LU: helper.FCvtDLU,
	rvenc.FCVT_S_D: helper.FCvtSD, rvenc.FCVT_D_S: helper.FCvtDS,
}

var fmaHelper = map[rvenc.OpCode]helper.Name{
	rvenc.FMADD_S: helper.FMAddS, rvenc.FMSUB_S: helper.FMSubS, rvenc.FNMSUB_S: helper.FNMSubS, rvenc.FNMADD_S: helper.FNMAddS,
	rvenc.FMADD_D: helper.FMAddD, rvenc.FMSUB_D: helper.FMSubD, rvenc.FNMSUB_D: helper.FNMSubD, rvenc.FNMADD_D: helper.FNMAddD,
}

// integerResult reports whether an opcode's helper result is an integer
// (written to the GPR bank) rather than an FP value (written to the FPR
// bank): FCLASS, the FCVT-to-integer forms, FEQ/FLT/FLE, and FMV.X.{W,D}.
func integerResult(op rvenc.OpCode) bool {
	switch op {
	case rvenc.FCLASS_S, rvenc.FCLASS_D,
		rvenc.FCVT_W_S, rvenc.FCVT_WU_S, rvenc.FCVT_L_S, rvenc.FCVT_LU_S,
		rvenc.FCVT_W_D, rvenc.FCVT_WU_D, rvenc.FCVT_L_D, rvenc.FCVT_LU_D,
		rvenc.FEQ_S, rvenc.FLT_S, rvenc.FLE_S, rvenc.FEQ_D, rvenc.FLT_D, rvenc.FLE_D,
		rvenc.FMV_X_W, rvenc.FMV_X_D:
		return true
	default:
		return false
	}
}

// EmitFP dispatches the FP-ARITH and FMADD/FMSUB/FNMSUB/FNMADD groups.
// Every path guards on mstatus.FS first, per spec.md §4.3.
func EmitFP(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	emitFSGuard(b, ctx)

	switch instr.Op {
	case rvenc.FSGNJ_S, rvenc.FSGNJN_S, rvenc.FSGNJX_S:
		emitFSgnj(b, instr, signMask32)
	case rvenc.FSGNJ_D, rvenc.FSGNJN_D, rvenc.FSGNJX_D:
		emitFSgnj(b, instr, signMask64)
	case rvenc.FMV_X_W:
		v := b.ReadFPR(instr.Rs1)
		w := sext32Temp(b, v)
		b.FreeTemp(v)
		b.WriteGPR(instr.Rd, w)
		b.FreeTemp(w)
	case rvenc.FMV_X_D:
		v := b.ReadFPR(instr.Rs1)
		b.WriteGPR(instr.Rd, v)
		b.FreeTemp(v)
	case rvenc.FMV_W_X:
		v := b.ReadGPR(mustGPR(instr.Rs1))
		b.WriteFPR(instr.Rd, v)
		b.FreeTemp(v)
	case rvenc.FMV_D_X:
		v := b.ReadGPR(mustGPR(instr.Rs1))
		b.WriteFPR(instr.Rd, v)
		b.FreeTemp(v)
	default:
		if name, ok := fmaHelper[instr.Op]; ok {
			emitFMA(b, instr, name)
			return
		}
		if name, ok := binHelper[instr.Op]; ok {
			emitFPBin(b, instr, name)
			return
		}
		if name, ok := unaryHelper[instr.Op]; ok {
			emitFPUnary(b, instr, name)
			return
		}
		b.RaiseIllegal(ctx.PC)
	}
}

const (
	signMask32 = int64(math.MinInt32)
	signMask64 = int64(math.MinInt64)
)

// emitFSgnj implements FSGNJ[N|X].{S,D} inline: the sign bit of rs1's
// magnitude combined with a sign source derived from rs2, per the variant
// (plain copy, negated, or XOR), using signBit as INT32_MIN/INT64_MIN per
// spec.md §4.3.
func emitFSgnj(b ir.Builder, instr rvenc.Instruction, signBit int64) {
	a := b.ReadFPR(instr.Rs1)
	c := b.ReadFPR(instr.Rs2)

	maskT := b.MovI(signBit)
	notMaskT := b.MovI(^signBit)
	mag := b.ALU(ir.OpAnd, a, notMaskT)
	b.FreeTemp(notMaskT)
	b.FreeTemp(a)

	var signSrc ir.Temp
	switch instr.Op {
	case rvenc.FSGNJ_S, rvenc.FSGNJ_D:
		signSrc = b.ALU(ir.OpAnd, c, maskT)
	case rvenc.FSGNJN_S, rvenc.FSGNJN_D:
		notC := b.ALU(ir.OpXor, c, maskT)
		signSrc = b.ALU(ir.OpAnd, notC, maskT)
		b.FreeTemp(notC)
	default: // FSGNJX
		signSrc = b.ALU(ir.OpAnd, c, maskT)
		xored := b.ALU(ir.OpXor, a, signSrc)
		b.FreeTemp(signSrc)
		signSrc = b.ALU(ir.OpAnd, xored, maskT)
		b.FreeTemp(xored)
	}
	b.FreeTemp(maskT)
	b.FreeTemp(c)

	res := b.ALU(ir.OpOr, mag, signSrc)
	b.FreeTemp(mag)
	b.FreeTemp(signSrc)
	b.WriteFPR(instr.Rd, res)
	b.FreeTemp(res)
}

func emitFPBin(b ir.Builder, instr rvenc.Instruction, name helper.Name) {
	a := b.ReadFPR(instr.Rs1)
	c := b.ReadFPR(instr.Rs2)

	// FEQ/FLT/FLE take no rounding mode (helper.Table arity 2).
	switch instr.Op {
	case rvenc.FEQ_S, rvenc.FLT_S, rvenc.FLE_S, rvenc.FEQ_D, rvenc.FLT_D, rvenc.FLE_D:
		res := b.Helper(string(name), []ir.Temp{a, c}, true)
		b.FreeTemp(a)
		b.FreeTemp(c)
		writeFPResult(b, instr, res)
		return
	}

	rm := b.MovI(int64(instr.Rm))
	res := b.Helper(string(name), []ir.Temp{a, c, rm}, true)
	b.FreeTemp(a)
	b.FreeTemp(c)
	b.FreeTemp(rm)
	writeFPResult(b, instr, res)
}

func emitFPUnary(b ir.Builder, instr rvenc.Instruction, name helper.Name) {
	var a ir.Temp
	switch instr.Op {
	case rvenc.FCVT_S_W, rvenc.FCVT_S_WU, rvenc.FCVT_S_L, rvenc.FCVT_S_LU,
		rvenc.FCVT_D_W, rvenc.FCVT_D_WU, rvenc.FCVT_D_L, rvenc.FCVT_D_LU:
		a = b.ReadGPR(mustGPR(instr.Rs1))
	default:
		a = b.ReadFPR(instr.Rs1)
	}

	// FCLASS takes no rounding mode (helper.Table arity 1); FSQRT/FCVT do.
	if instr.Op == rvenc.FCLASS_S || instr.Op == rvenc.FCLASS_D {
		res := b.Helper(string(name), []ir.Temp{a}, true)
		b.FreeTemp(a)
		writeFPResult(b, instr, res)
		return
	}

	rm := b.MovI(int64(instr.Rm))
	res := b.Helper(string(name), []ir.Temp{a, rm}, true)
	b.FreeTemp(a)
	b.FreeTemp(rm)
	writeFPResult(b, instr, res)
}

func emitFMA(b ir.Builder, instr rvenc.Instruction, name helper.Name) {
	a := b.ReadFPR(instr.Rs1)
	c := b.ReadFPR(instr.Rs2)
	d := b.ReadFPR(instr.Rs3)
	rm := b.MovI(int64(instr.Rm))
	res := b.Helper(string(name), []ir.Temp{a, c, d, rm}, true)
	b.FreeTemp(a)
	b.FreeTemp(c)
	b.FreeTemp(d)
	b.FreeTemp(rm)
	b.WriteFPR(instr.Rd, res)
	b.FreeTemp(res)
}

func writeFPResult(b ir.Builder, instr rvenc.Instruction, res ir.Temp) {
	if integerResult(instr.Op) {
		b.WriteGPR(instr.Rd, res)
	} else {
		b.WriteFPR(instr.Rd, res)
	}
	b.FreeTemp(res)
}
