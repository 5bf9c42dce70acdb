package emit

import (
	"math"

	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

// EmitArith handles OP-IMM, OP-IMM-32, OP, OP-32, and the M-extension
// groups (spec.md §4.3 "Arithmetic group"). ctx.State is left at
// ir.StateNone; none of these instructions redirect control flow.
func EmitArith(b ir.Builder, ctx *ir.DecoderContext, instr rvenc.Instruction) {
	switch instr.Op {
	case rvenc.ADDI, rvenc.SLTI, rvenc.SLTIU, rvenc.XORI, rvenc.ORI, rvenc.ANDI:
		emitAluImm(b, instr)
	case rvenc.SLLI, rvenc.SRLI, rvenc.SRAI:
		emitShiftImm(b, instr, ctx.XLen, false)
	case rvenc.ADDIW:
		a := b.ReadGPR(mustGPR(instr.Rs1))
		imm := b.MovI(instr.Imm)
		sum := b.ALU(ir.OpAdd, a, imm)
		b.FreeTemp(a)
		b.FreeTemp(imm)
		res := sext32Temp(b, sum)
		b.FreeTemp(sum)
		b.WriteGPR(instr.Rd, res)
		b.FreeTemp(res)
	case rvenc.SLLIW, rvenc.SRLIW, rvenc.SRAIW:
		emitShiftImm(b, instr, 32, true)
	case rvenc.ADD, rvenc.SUB, rvenc.SLT, rvenc.SLTU, rvenc.XOR, rvenc.OR, rvenc.AND,
		rvenc.SLL, rvenc.SRL, rvenc.SRA:
		emitAluReg(b, instr, ctx.XLen)
	case rvenc.ADDW, rvenc.SUBW, rvenc.SLLW, rvenc.SRLW, rvenc.SRAW:
		emitAluRegW(b, instr)
	case rvenc.MUL, rvenc.MULH, rvenc.MULHU:
		emitMul(b, instr)
	case rvenc.MULHSU:
		emitMulhsu(b, instr, ctx.XLen)
	case rvenc.DIV, rvenc.DIVU, rvenc.REM, rvenc.REMU:
		emitDivRem(b, instr, ctx.XLen, false)
	case rvenc.MULW:
		a := b.ReadGPR(mustGPR(instr.Rs1))
		c := b.ReadGPR(mustGPR(instr.Rs2))
		prod := b.ALU(ir.OpMul, a, c)
		b.FreeTemp(a)
		b.FreeTemp(c)
		res := sext32Temp(b, prod)
		b.FreeTemp(prod)
		b.WriteGPR(instr.Rd, res)
		b.FreeTemp(res)
	case rvenc.DIVW, rvenc.DIVUW, rvenc.REMW, rvenc.REMUW:
		emitDivRem(b, instr, 32, true)
	}
}

func aluOpFor(op rvenc.OpCode) (ir.ALUOp, bool) {
	switch op {
	case rvenc.ADDI, rvenc.ADD, rvenc.ADDW:
		return ir.OpAdd, false
	case rvenc.SUB, rvenc.SUBW:
		return ir.OpSub, false
	case rvenc.XORI, rvenc.XOR:
		return ir.OpXor, false
	case rvenc.ORI, rvenc.OR:
		return ir.OpOr, false
	case rvenc.ANDI, rvenc.AND:
		return ir.OpAnd, false
	case rvenc.SLTI, rvenc.SLT:
		return ir.OpSetCond, true // signed <
	case rvenc.SLTIU, rvenc.SLTU:
		return ir.OpSetCond, true // unsigned <, disambiguated by caller
	}
	return ir.OpAdd, false
}

func emitAluImm(b ir.Builder, instr rvenc.Instruction) {
	a := b.ReadGPR(mustGPR(instr.Rs1))
	imm := b.MovI(instr.Imm)
	var res ir.Temp
	switch instr.Op {
	case rvenc.SLTI:
		res = b.ALUCond(ir.CondLT, a, imm)
	case rvenc.SLTIU:
		res = b.ALUCond(ir.CondLTU, a, imm)
	default:
		op, _ := aluOpFor(instr.Op)
		res = b.ALU(op, a, imm)
	}
	b.FreeTemp(a)
	b.FreeTemp(imm)
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}

func emitAluReg(b ir.Builder, instr rvenc.Instruction, xlen int) {
	a := b.ReadGPR(mustGPR(instr.Rs1))
	c := b.ReadGPR(mustGPR(instr.Rs2))
	var res ir.Temp
	switch instr.Op {
	case rvenc.SLT:
		res = b.ALUCond(ir.CondLT, a, c)
	case rvenc.SLTU:
		res = b.ALUCond(ir.CondLTU, a, c)
	case rvenc.SLL, rvenc.SRL, rvenc.SRA:
		res = emitShiftReg(b, instr.Op, a, c, xlen)
	default:
		op, _ := aluOpFor(instr.Op)
		res = b.ALU(op, a, c)
	}
	b.FreeTemp(a)
	b.FreeTemp(c)
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}

func emitAluRegW(b ir.Builder, instr rvenc.Instruction) {
	a := b.ReadGPR(mustGPR(instr.Rs1))
	c := b.ReadGPR(mustGPR(instr.Rs2))
	var res32 ir.Temp
	switch instr.Op {
	case rvenc.ADDW:
		res32 = b.ALU(ir.OpAdd, a, c)
	case rvenc.SUBW:
		res32 = b.ALU(ir.OpSub, a, c)
	case rvenc.SLLW:
		// Left shift only moves bits up, so the low 32 result bits never
		// depend on rs1's high 32 bits — no operand truncation needed.
		mask := b.MovI(31)
		shamt := b.ALU(ir.OpAnd, c, mask)
		b.FreeTemp(mask)
		res32 = b.ALU(ir.OpShl, a, shamt)
		b.FreeTemp(shamt)
	case rvenc.SRLW, rvenc.SRAW:
		// Right shifts pull bits down from above bit 31, so rs1 must first
		// be truncated to its low 32 bits — zero-extended for the logical
		// shift, sign-extended for the arithmetic one — before shifting.
		mask := b.MovI(31)
		shamt := b.ALU(ir.OpAnd, c, mask)
		b.FreeTemp(mask)
		var a32 ir.Temp
		if instr.Op == rvenc.SRLW {
			a32 = zext32Temp(b, a)
			res32 = b.ALU(ir.OpShr, a32, shamt)
		} else {
			a32 = sext32Temp(b, a)
			res32 = b.ALU(ir.OpSar, a32, shamt)
		}
		b.FreeTemp(a32)
		b.FreeTemp(shamt)
	}
	b.FreeTemp(a)
	b.FreeTemp(c)
	res := sext32Temp(b, res32)
	b.FreeTemp(res32)
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}

// emitShiftImm emits SLLI/SRLI/SRAI (or their *W forms, forceW=true). The
// decoder has already masked Imm to the correct width via rvenc.Shamt5/6,
// so no further masking is required here; spec.md §8's "SLLI imm >= XLEN
// raises Illegal" is enforced at decode time (pkg/rvdec returns ILLEGAL).
func emitShiftImm(b ir.Builder, instr rvenc.Instruction, xlen int, forceW bool) {
	a := b.ReadGPR(mustGPR(instr.Rs1))
	shamt := b.MovI(instr.Imm)
	var op ir.ALUOp
	switch instr.Op {
	case rvenc.SLLI, rvenc.SLLIW:
		op = ir.OpShl
	case rvenc.SRLI, rvenc.SRLIW:
		op = ir.OpShr
	case rvenc.SRAI, rvenc.SRAIW:
		op = ir.OpSar
	}
	res := b.ALU(op, a, shamt)
	b.FreeTemp(a)
	b.FreeTemp(shamt)
	if forceW {
		w := sext32Temp(b, res)
		b.FreeTemp(res)
		res = w
	}
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}

func emitShiftReg(b ir.Builder, op rvenc.OpCode, a, c ir.Temp, xlen int) ir.Temp {
	m := b.MovI(xlenMask(xlen))
	shamt := b.ALU(ir.OpAnd, c, m)
	b.FreeTemp(m)
	var aluOp ir.ALUOp
	switch op {
	case rvenc.SLL:
		aluOp = ir.OpShl
	case rvenc.SRL:
		aluOp = ir.OpShr
	case rvenc.SRA:
		aluOp = ir.OpSar
	}
	res := b.ALU(aluOp, a, shamt)
	b.FreeTemp(shamt)
	return res
}

func emitMul(b ir.Builder, instr rvenc.Instruction) {
	a := b.ReadGPR(mustGPR(instr.Rs1))
	c := b.ReadGPR(mustGPR(instr.Rs2))
	var op ir.ALUOp
	switch instr.Op {
	case rvenc.MUL:
		op = ir.OpMul
	case rvenc.MULH:
		op = ir.OpMulHS
	case rvenc.MULHU:
		op = ir.OpMulHU
	}
	res := b.ALU(op, a, c)
	b.FreeTemp(a)
	b.FreeTemp(c)
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}

// emitMulhsu implements MULHSU: an unsigned widening multiply of
// (signed-as-unsigned) rs1 by rs2, with a correction subtracting
// arg2 & (arg1 >> (XLEN-1)) from the high word (spec.md §4.3). Uses three
// distinctly-named temps (hi, correction, corrected) per the Open
// Question resolution in spec.md §9 — the source's reuse of one temp for
// two meanings is explicitly flagged as easy to misread.
func emitMulhsu(b ir.Builder, instr rvenc.Instruction, xlen int) {
	arg1 := b.ReadGPR(mustGPR(instr.Rs1)) // signed
	arg2 := b.ReadGPR(mustGPR(instr.Rs2)) // unsigned

	hi := b.ALU(ir.OpMulHU, arg1, arg2)

	shiftAmt := b.MovI(int64(xlen - 1))
	signMask := b.ALU(ir.OpSar, arg1, shiftAmt) // all-ones if arg1 < 0, else 0
	b.FreeTemp(shiftAmt)

	correction := b.ALU(ir.OpAnd, arg2, signMask)
	b.FreeTemp(signMask)

	corrected := b.ALU(ir.OpSub, hi, correction)
	b.FreeTemp(hi)
	b.FreeTemp(correction)

	b.FreeTemp(arg1)
	b.FreeTemp(arg2)
	b.WriteGPR(instr.Rd, corrected)
	b.FreeTemp(corrected)
}

// emitDivRem implements the architected DIV/DIVU/REM/REMU special cases
// from spec.md §4.3's table via conditional-move IR over the native
// div/rem result, so the underlying divide never traps:
//   - divisor == 0: DIV -> -1, DIVU -> 2^XLEN-1, REM/REMU -> dividend
//   - signed overflow (min-int / -1): DIV -> dividend, REM -> 0
func emitDivRem(b ir.Builder, instr rvenc.Instruction, xlen int, isW bool) {
	dividend := b.ReadGPR(mustGPR(instr.Rs1))
	divisor := b.ReadGPR(mustGPR(instr.Rs2))

	signed := instr.Op == rvenc.DIV || instr.Op == rvenc.REM || instr.Op == rvenc.DIVW || instr.Op == rvenc.REMW
	isRem := instr.Op == rvenc.REM || instr.Op == rvenc.REMU || instr.Op == rvenc.REMW || instr.Op == rvenc.REMUW
	hasOverflow := signed

	// DIVW/DIVUW/REMW/REMUW divide on the 32-bit operand, not the 32-bit
	// result: rs1/rs2 must be truncated to their low 32 bits — sign-extended
	// for the signed forms, zero-extended for the unsigned ones — before
	// any comparison or division runs, or garbage in the high 32 bits of
	// the guest registers corrupts both the divide and the overflow check.
	if isW {
		var dividend32, divisor32 ir.Temp
		if signed {
			dividend32 = sext32Temp(b, dividend)
			divisor32 = sext32Temp(b, divisor)
		} else {
			dividend32 = zext32Temp(b, dividend)
			divisor32 = zext32Temp(b, divisor)
		}
		b.FreeTemp(dividend)
		b.FreeTemp(divisor)
		dividend, divisor = dividend32, divisor32
	}

	zero := b.MovI(0)
	isZero := b.ALUCond(ir.CondEQ, divisor, zero)

	var minInt int64
	if isW {
		minInt = math.MinInt32
	} else if xlen == 64 {
		minInt = math.MinInt64
	} else {
		minInt = math.MinInt32
	}

	// isOverflow detects the signed min-int / -1 case; only DIV/REM (not
	// the U forms) can hit it.
	var isOverflow ir.Temp
	if hasOverflow {
		minT := b.MovI(minInt)
		negOneT := b.MovI(-1)
		isMin := b.ALUCond(ir.CondEQ, dividend, minT)
		isNegOne := b.ALUCond(ir.CondEQ, divisor, negOneT)
		b.FreeTemp(minT)
		b.FreeTemp(negOneT)
		isOverflow = b.ALU(ir.OpAnd, isMin, isNegOne)
		b.FreeTemp(isMin)
		b.FreeTemp(isNegOne)
	}

	// Substitute sentinel operands so the native div/rem never traps: a
	// divisor of 1 sidesteps divide-by-zero, and (for DIV/REM only) an
	// overflow-free divisor of 1 sidesteps the min-int/-1 case. The
	// architected result is restored afterward via Select.
	one := b.MovI(1)
	safeDivisor := b.Select(isZero, one, divisor)
	if hasOverflow {
		safeDivisor2 := b.Select(isOverflow, one, safeDivisor)
		b.FreeTemp(safeDivisor)
		safeDivisor = safeDivisor2
	}
	b.FreeTemp(one)

	var nativeOp ir.ALUOp
	switch {
	case isRem && signed:
		nativeOp = ir.OpRem
	case isRem && !signed:
		nativeOp = ir.OpRemU
	case !isRem && signed:
		nativeOp = ir.OpDiv
	default:
		nativeOp = ir.OpDivU
	}

	native := b.ALU(nativeOp, dividend, safeDivisor)
	b.FreeTemp(safeDivisor)

	// Zero-divisor architected result: DIV -> -1, DIVU -> 2^XLEN-1 (the
	// same all-ones bit pattern as -1), REM/REMU -> dividend.
	var zeroCase ir.Temp
	if isRem {
		zeroCase = b.MovTemp(dividend)
	} else {
		zeroCase = b.MovI(-1)
	}
	res := b.Select(isZero, zeroCase, native)
	b.FreeTemp(zeroCase)
	b.FreeTemp(native)
	b.FreeTemp(isZero)
	b.FreeTemp(zero)

	if hasOverflow {
		var overflowResult ir.Temp
		if isRem {
			overflowResult = b.MovI(0)
		} else {
			overflowResult = b.MovTemp(dividend)
		}
		res2 := b.Select(isOverflow, overflowResult, res)
		b.FreeTemp(overflowResult)
		b.FreeTemp(res)
		b.FreeTemp(isOverflow)
		res = res2
	}

	b.FreeTemp(dividend)
	b.FreeTemp(divisor)

	if isW {
		w := sext32Temp(b, res)
		b.FreeTemp(res)
		res = w
	}
	b.WriteGPR(instr.Rd, res)
	b.FreeTemp(res)
}
