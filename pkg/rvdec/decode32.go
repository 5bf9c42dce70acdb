// Package rvdec implements the two RISC-V decoder entry points: the 32-bit
// major-opcode decoder and the 16-bit Compressed (C) decoder. Both are pure
// functions from an encoded word to a rvenc.Instruction; neither touches
// guest state or emits IR — that is pkg/emit's job, invoked by pkg/tb once
// a Instruction has been produced here.
package rvdec

import (
	"fmt"

	"github.com/oisee/rvtrans/pkg/rvenc"
)

// baseOpcode is bits[6:2] of a 32-bit instruction word (bits[1:0] are
// always 0b11 and are not part of the dispatch key).
type baseOpcode uint32

const (
	boLoad    baseOpcode = 0x00
	boLoadFP  baseOpcode = 0x01
	boMiscMem baseOpcode = 0x03
	boOpImm   baseOpcode = 0x04
	boAUIPC   baseOpcode = 0x05
	boOpImm32 baseOpcode = 0x06
	boStore   baseOpcode = 0x08
	boStoreFP baseOpcode = 0x09
	boAMO     baseOpcode = 0x0b
	boOp      baseOpcode = 0x0c
	boLUI     baseOpcode = 0x0d
	boOp32    baseOpcode = 0x0e
	boMadd    baseOpcode = 0x10
	boMsub    baseOpcode = 0x11
	boNmsub   baseOpcode = 0x12
	boNmadd   baseOpcode = 0x13
	boOpFP    baseOpcode = 0x14
	boBranch  baseOpcode = 0x18
	boJALR    baseOpcode = 0x19
	boJAL     baseOpcode = 0x1b
	boSystem  baseOpcode = 0x1c
)

// Decode32 decodes a 32-bit RISC-V instruction word. xlen is 32 or 64; RV64-
// only operations, like every other illegal encoding, decode to
// rvenc.ILLEGAL with a nil error when xlen == 32. An error is returned
// only when op is not a 32-bit encoding (low bits other than 0b11).
//
// Grounded on LMMilewski-riscv-emu/decode.go's base-opcode dispatch; unlike
// that reference (which looks up a *function* in a dense funct7|funct3|
// opcode table), this returns an operand-tuple rvenc.Instruction so the
// caller (pkg/emit) can dispatch on rvenc.OpCode without re-touching bits.
func Decode32(op uint32, xlen int) (rvenc.Instruction, error) {
	if op&0x3 != 0x3 {
		return rvenc.Instruction{}, fmt.Errorf("rvdec: %#08x is not a 32-bit encoding (low bits %#x)", op, op&0x3)
	}

	rd := uint8(rvenc.Extract(op, 7, 5))
	rs1 := uint8(rvenc.Extract(op, 15, 5))
	rs2 := uint8(rvenc.Extract(op, 20, 5))
	funct3 := rvenc.Extract(op, 12, 3)
	funct7 := rvenc.Extract(op, 25, 7)
	bop := baseOpcode(rvenc.Extract(op, 2, 5))

	instr := rvenc.Instruction{Rd: rd, Rs1: rs1, Rs2: rs2, Length: 4}

	switch bop {
	case boLUI:
		instr.Op = rvenc.LUI
		instr.Imm = rvenc.ImmU(op)
	case boAUIPC:
		instr.Op = rvenc.AUIPC
		instr.Imm = rvenc.ImmU(op)
	case boJAL:
		instr.Op = rvenc.JAL
		instr.Imm = rvenc.ImmJ(op)
	case boJALR:
		if funct3 != 0 {
			return illegal(), nil
		}
		instr.Op = rvenc.JALR
		instr.Imm = rvenc.ImmI(op)
	case boBranch:
		instr.Imm = rvenc.ImmB(op)
		switch funct3 {
		case 0x0:
			instr.Op = rvenc.BEQ
		case 0x1:
			instr.Op = rvenc.BNE
		case 0x4:
			instr.Op = rvenc.BLT
		case 0x5:
			instr.Op = rvenc.BGE
		case 0x6:
			instr.Op = rvenc.BLTU
		case 0x7:
			instr.Op = rvenc.BGEU
		default:
			return illegal(), nil
		}
	case boLoad:
		instr.Imm = rvenc.ImmI(op)
		switch funct3 {
		case 0x0:
			instr.Op, instr.Width, instr.Unsigned = rvenc.LB, 1, false
		case 0x1:
			instr.Op, instr.Width, instr.Unsigned = rvenc.LH, 2, false
		case 0x2:
			instr.Op, instr.Width, instr.Unsigned = rvenc.LW, 4, false
		case 0x3:
			if xlen != 64 {
				return illegal(), nil
			}
			instr.Op, instr.Width, instr.Unsigned = rvenc.LD, 8, false
		case 0x4:
			instr.Op, instr.Width, instr.Unsigned = rvenc.LBU, 1, true
		case 0x5:
			instr.Op, instr.Width, instr.Unsigned = rvenc.LHU, 2, true
		case 0x6:
			if xlen != 64 {
				return illegal(), nil
			}
			instr.Op, instr.Width, instr.Unsigned = rvenc.LWU, 4, true
		default:
			return illegal(), nil
		}
	case boStore:
		instr.Imm = rvenc.ImmS(op)
		switch funct3 {
		case 0x0:
			instr.Op, instr.Width = rvenc.SB, 1
		case 0x1:
			instr.Op, instr.Width = rvenc.SH, 2
		case 0x2:
			instr.Op, instr.Width = rvenc.SW, 4
		case 0x3:
			if xlen != 64 {
				return illegal(), nil
			}
			instr.Op, instr.Width = rvenc.SD, 8
		default:
			return illegal(), nil
		}
	case boLoadFP:
		instr.Imm = rvenc.ImmI(op)
		switch funct3 {
		case 0x2:
			instr.Op, instr.Width = rvenc.FLW, 4
		case 0x3:
			instr.Op, instr.Width = rvenc.FLD, 8
		default:
			return illegal(), nil
		}
	case boStoreFP:
		instr.Imm = rvenc.ImmS(op)
		switch funct3 {
		case 0x2:
			instr.Op, instr.Width = rvenc.FSW, 4
		case 0x3:
			instr.Op, instr.Width = rvenc.FSD, 8
		default:
			return illegal(), nil
		}
	case boOpImm:
		instr.Imm = rvenc.ImmI(op)
		switch funct3 {
		case 0x0:
			instr.Op = rvenc.ADDI
		case 0x1:
			// bits[31:26] select SLLI vs illegal; bit25 is the shamt's own
			// high bit on RV64 and must be zero on RV32 (only a 5-bit
			// shamt exists there), so it is NOT part of the opcode funct7
			// the way it is for SRLI/SRAI's bit30 split.
			if rvenc.Extract(op, 26, 6) != 0 {
				return illegal(), nil
			}
			if xlen != 64 && rvenc.Extract(op, 25, 1) != 0 {
				return illegal(), nil
			}
			instr.Op = rvenc.SLLI
			instr.Imm = int64(shamt(op, xlen))
		case 0x2:
			instr.Op = rvenc.SLTI
		case 0x3:
			instr.Op = rvenc.SLTIU
		case 0x4:
			instr.Op = rvenc.XORI
		case 0x5:
			funct6 := rvenc.Extract(op, 26, 6)
			if xlen != 64 && rvenc.Extract(op, 25, 1) != 0 {
				return illegal(), nil
			}
			switch funct6 {
			case 0x00:
				instr.Op = rvenc.SRLI
			case 0x10:
				instr.Op = rvenc.SRAI
			default:
				return illegal(), nil
			}
			instr.Imm = int64(shamt(op, xlen))
		case 0x6:
			instr.Op = rvenc.ORI
		case 0x7:
			instr.Op = rvenc.ANDI
		default:
			return illegal(), nil
		}
	case boOpImm32:
		if xlen != 64 {
			return illegal(), nil
		}
		instr.Imm = rvenc.ImmI(op)
		switch funct3 {
		case 0x0:
			instr.Op = rvenc.ADDIW
		case 0x1:
			if funct7 != 0 {
				return illegal(), nil
			}
			instr.Op = rvenc.SLLIW
			instr.Imm = int64(rvenc.Shamt5(op))
		case 0x5:
			if funct7 == 0x20 {
				instr.Op = rvenc.SRAIW
			} else if funct7 == 0 {
				instr.Op = rvenc.SRLIW
			} else {
				return illegal(), nil
			}
			instr.Imm = int64(rvenc.Shamt5(op))
		default:
			return illegal(), nil
		}
	case boOp:
		switch {
		case funct7 == 0x00:
			instr.Op = opGroupBase(funct3)
		case funct7 == 0x20:
			instr.Op = opGroupAlt(funct3)
		case funct7 == 0x01:
			instr.Op = opGroupM(funct3)
		default:
			return illegal(), nil
		}
		if instr.Op == rvenc.ILLEGAL {
			return illegal(), nil
		}
	case boOp32:
		if xlen != 64 {
			return illegal(), nil
		}
		switch {
		case funct7 == 0x00:
			instr.Op = opGroupBaseW(funct3)
		case funct7 == 0x20:
			instr.Op = opGroupAltW(funct3)
		case funct7 == 0x01:
			instr.Op = opGroupMW(funct3)
		default:
			return illegal(), nil
		}
		if instr.Op == rvenc.ILLEGAL {
			return illegal(), nil
		}
	case boMiscMem:
		switch funct3 {
		case 0x0:
			instr.Op = rvenc.FENCE
			instr.Pred = uint8(rvenc.Extract(op, 24, 4))
			instr.Succ = uint8(rvenc.Extract(op, 20, 4))
		case 0x1:
			instr.Op = rvenc.FENCE_I
		default:
			return illegal(), nil
		}
	case boSystem:
		if err := decodeSystem(op, funct3, &instr); err != nil {
			return illegal(), nil
		}
	case boAMO:
		if err := decodeAtomic(op, funct3, funct7, &instr, xlen); err != nil {
			return illegal(), nil
		}
	case boMadd, boMsub, boNmsub, boNmadd:
		decodeFMA(op, bop, &instr)
	case boOpFP:
		if err := decodeFPArith(op, &instr, xlen); err != nil {
			return illegal(), nil
		}
	default:
		return illegal(), nil
	}
	return instr, nil
}

func illegal() rvenc.Instruction {
	return rvenc.Instruction{Op: rvenc.ILLEGAL, Length: 4}
}

// shamt extracts the shift amount, masked by XLEN-1: 5 bits on RV32, 6 on
// RV64 (spec.md §4.3 / §8: "SLLI imm >= XLEN raises Illegal" is enforced
// by the caller inspecting the raw, unmasked field before calling this —
// shamt itself only selects which field width to read).
func shamt(op uint32, xlen int) uint32 {
	if xlen == 64 {
		return rvenc.Shamt6(op)
	}
	return rvenc.Shamt5(op)
}

func opGroupBase(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.ADD
	case 0x1:
		return rvenc.SLL
	case 0x2:
		return rvenc.SLT
	case 0x3:
		return rvenc.SLTU
	case 0x4:
		return rvenc.XOR
	case 0x5:
		return rvenc.SRL
	case 0x6:
		return rvenc.OR
	case 0x7:
		return rvenc.AND
	}
	return rvenc.ILLEGAL
}

func opGroupAlt(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.SUB
	case 0x5:
		return rvenc.SRA
	}
	return rvenc.ILLEGAL
}

func opGroupM(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.MUL
	case 0x1:
		return rvenc.MULH
	case 0x2:
		return rvenc.MULHSU
	case 0x3:
		return rvenc.MULHU
	case 0x4:
		return rvenc.DIV
	case 0x5:
		return rvenc.DIVU
	case 0x6:
		return rvenc.REM
	case 0x7:
		return rvenc.REMU
	}
	return rvenc.ILLEGAL
}

func opGroupBaseW(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.ADDW
	case 0x1:
		return rvenc.SLLW
	case 0x5:
		return rvenc.SRLW
	}
	return rvenc.ILLEGAL
}

func opGroupAltW(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.SUBW
	case 0x5:
		return rvenc.SRAW
	}
	return rvenc.ILLEGAL
}

func opGroupMW(funct3 uint32) rvenc.OpCode {
	switch funct3 {
	case 0x0:
		return rvenc.MULW
	case 0x4:
		return rvenc.DIVW
	case 0x5:
		return rvenc.DIVUW
	case 0x6:
		return rvenc.REMW
	case 0x7:
		return rvenc.REMUW
	}
	return rvenc.ILLEGAL
}

func decodeAtomic(op uint32, funct3, funct7 uint32, instr *rvenc.Instruction, xlen int) error {
	width := funct3
	if width != 2 && width != 3 {
		return fmt.Errorf("unsupported AMO width funct3=%d", funct3)
	}
	if width == 3 && xlen != 64 {
		return fmt.Errorf("AMO.D requires RV64")
	}
	instr.Aq = rvenc.Extract(op, 26, 1) != 0
	instr.Rl = rvenc.Extract(op, 25, 1) != 0
	instr.Width = 4
	if width == 3 {
		instr.Width = 8
	}
	top5 := rvenc.Extract(op, 27, 5)
	is64 := width == 3
	switch top5 {
	case 0x02:
		if instr.Rs2 != 0 {
			return fmt.Errorf("LR requires rs2=0")
		}
		instr.Op = pick(is64, rvenc.LR_D, rvenc.LR_W)
	case 0x03:
		instr.Op = pick(is64, rvenc.SC_D, rvenc.SC_W)
	case 0x01:
		instr.Op = pick(is64, rvenc.AMOSWAP_D, rvenc.AMOSWAP_W)
	case 0x00:
		instr.Op = pick(is64, rvenc.AMOADD_D, rvenc.AMOADD_W)
	case 0x04:
		instr.Op = pick(is64, rvenc.AMOXOR_D, rvenc.AMOXOR_W)
	case 0x0c:
		instr.Op = pick(is64, rvenc.AMOAND_D, rvenc.AMOAND_W)
	case 0x08:
		instr.Op = pick(is64, rvenc.AMOOR_D, rvenc.AMOOR_W)
	case 0x10:
		instr.Op = pick(is64, rvenc.AMOMIN_D, rvenc.AMOMIN_W)
	case 0x14:
		instr.Op = pick(is64, rvenc.AMOMAX_D, rvenc.AMOMAX_W)
	case 0x18:
		instr.Op = pick(is64, rvenc.AMOMINU_D, rvenc.AMOMINU_W)
	case 0x1c:
		instr.Op = pick(is64, rvenc.AMOMAXU_D, rvenc.AMOMAXU_W)
	default:
		return fmt.Errorf("unrecognized AMO funct5 %#x", top5)
	}
	return nil
}

func pick(cond bool, a, b rvenc.OpCode) rvenc.OpCode {
	if cond {
		return a
	}
	return b
}

func decodeSystem(op uint32, funct3 uint32, instr *rvenc.Instruction) error {
	switch funct3 {
	case 0x0:
		imm12 := rvenc.Extract(op, 20, 12)
		switch imm12 {
		case 0x000:
			instr.Op = rvenc.ECALL
		case 0x001:
			instr.Op = rvenc.EBREAK
		case 0x102:
			instr.Op = rvenc.SRET
		case 0x302:
			instr.Op = rvenc.MRET
		case 0x105:
			instr.Op = rvenc.WFI
		default:
			if rvenc.Extract(op, 25, 7) == 0x09 {
				instr.Op = rvenc.SFENCE_VMA
				return nil
			}
			return fmt.Errorf("unrecognized SYSTEM imm12 %#x", imm12)
		}
	case 0x1:
		instr.Op = rvenc.CSRRW
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
	case 0x2:
		instr.Op = rvenc.CSRRS
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
	case 0x3:
		instr.Op = rvenc.CSRRC
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
	case 0x5:
		instr.Op = rvenc.CSRRWI
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
		instr.Imm = int64(instr.Rs1) // zimm reuses the rs1 field
	case 0x6:
		instr.Op = rvenc.CSRRSI
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
		instr.Imm = int64(instr.Rs1)
	case 0x7:
		instr.Op = rvenc.CSRRCI
		instr.Csr = uint16(rvenc.Extract(op, 20, 12))
		instr.Imm = int64(instr.Rs1)
	default:
		return fmt.Errorf("unrecognized SYSTEM funct3 %d", funct3)
	}
	return nil
}

func decodeFMA(op uint32, bop baseOpcode, instr *rvenc.Instruction) {
	instr.Rs3 = uint8(rvenc.Extract(op, 27, 5))
	instr.Rm = uint8(rvenc.Extract(op, 12, 3))
	double := rvenc.Extract(op, 25, 2) == 1
	switch bop {
	case boMadd:
		instr.Op = pick(double, rvenc.FMADD_D, rvenc.FMADD_S)
	case boMsub:
		instr.Op = pick(double, rvenc.FMSUB_D, rvenc.FMSUB_S)
	case boNmsub:
		instr.Op = pick(double, rvenc.FNMSUB_D, rvenc.FNMSUB_S)
	case boNmadd:
		instr.Op = pick(double, rvenc.FNMADD_D, rvenc.FNMADD_S)
	}
}

// decodeFPArith decodes the OP-FP major opcode: funct7 selects the
// operation family, funct3/rs2 multiplex within a family (rounding mode,
// compare kind, or FCVT target/source type), per spec.md §4.3.
func decodeFPArith(op uint32, instr *rvenc.Instruction, xlen int) error {
	funct7 := rvenc.Extract(op, 25, 7)
	funct3 := rvenc.Extract(op, 12, 3)
	rs2 := rvenc.Extract(op, 20, 5)
	instr.Rm = uint8(funct3)

	dbl := func(s, d rvenc.OpCode) rvenc.OpCode { return pick(funct7&0x1 == 1, d, s) }

	switch funct7 &^ 0x1 {
	case 0x00: // FADD
		instr.Op = dbl(rvenc.FADD_S, rvenc.FADD_D)
	case 0x04: // FSUB
		instr.Op = dbl(rvenc.FSUB_S, rvenc.FSUB_D)
	case 0x08: // FMUL
		instr.Op = dbl(rvenc.FMUL_S, rvenc.FMUL_D)
	case 0x0c: // FDIV
		instr.Op = dbl(rvenc.FDIV_S, rvenc.FDIV_D)
	case 0x2c:
		if rs2 != 0 {
			return fmt.Errorf("FSQRT requires rs2=0")
		}
		instr.Op = dbl(rvenc.FSQRT_S, rvenc.FSQRT_D)
	case 0x10: // FSGNJ family, muxed on funct3
		switch funct3 {
		case 0:
			instr.Op = dbl(rvenc.FSGNJ_S, rvenc.FSGNJ_D)
		case 1:
			instr.Op = dbl(rvenc.FSGNJN_S, rvenc.FSGNJN_D)
		case 2:
			instr.Op = dbl(rvenc.FSGNJX_S, rvenc.FSGNJX_D)
		default:
			return fmt.Errorf("bad FSGNJ funct3 %d", funct3)
		}
	case 0x14: // FMIN/FMAX
		switch funct3 {
		case 0:
			instr.Op = dbl(rvenc.FMIN_S, rvenc.FMIN_D)
		case 1:
			instr.Op = dbl(rvenc.FMAX_S, rvenc.FMAX_D)
		default:
			return fmt.Errorf("bad FMIN/FMAX funct3 %d", funct3)
		}
	case 0x50: // FEQ/FLT/FLE
		switch funct3 {
		case 0:
			instr.Op = dbl(rvenc.FLE_S, rvenc.FLE_D)
		case 1:
			instr.Op = dbl(rvenc.FLT_S, rvenc.FLT_D)
		case 2:
			instr.Op = dbl(rvenc.FEQ_S, rvenc.FEQ_D)
		default:
			return fmt.Errorf("bad FP compare funct3 %d", funct3)
		}
	case 0x60: // FCVT.{W,WU,L,LU}.{S,D}
		double := funct7&0x1 == 1
		switch rs2 {
		case 0:
			instr.Op = pick(double, rvenc.FCVT_W_D, rvenc.FCVT_W_S)
		case 1:
			instr.Op = pick(double, rvenc.FCVT_WU_D, rvenc.FCVT_WU_S)
		case 2:
			if xlen != 64 {
				return fmt.Errorf("FCVT.L requires RV64")
			}
			instr.Op = pick(double, rvenc.FCVT_L_D, rvenc.FCVT_L_S)
		case 3:
			if xlen != 64 {
				return fmt.Errorf("FCVT.LU requires RV64")
			}
			instr.Op = pick(double, rvenc.FCVT_LU_D, rvenc.FCVT_LU_S)
		default:
			return fmt.Errorf("bad FCVT-to-int rs2 %d", rs2)
		}
	case 0x68: // FCVT.{S,D}.{W,WU,L,LU}
		double := funct7&0x1 == 1
		switch rs2 {
		case 0:
			instr.Op = pick(double, rvenc.FCVT_D_W, rvenc.FCVT_S_W)
		case 1:
			instr.Op = pick(double, rvenc.FCVT_D_WU, rvenc.FCVT_S_WU)
		case 2:
			if xlen != 64 {
				return fmt.Errorf("FCVT.L requires RV64")
			}
			instr.Op = pick(double, rvenc.FCVT_D_L, rvenc.FCVT_S_L)
		case 3:
			if xlen != 64 {
				return fmt.Errorf("FCVT.LU requires RV64")
			}
			instr.Op = pick(double, rvenc.FCVT_D_LU, rvenc.FCVT_S_LU)
		default:
			return fmt.Errorf("bad FCVT-from-int rs2 %d", rs2)
		}
	case 0x70: // FMV.X.{W,D} / FCLASS
		if rs2 != 0 {
			return fmt.Errorf("FMV.X/FCLASS requires rs2=0")
		}
		double := funct7&0x1 == 1
		switch funct3 {
		case 0:
			instr.Op = pick(double, rvenc.FMV_X_D, rvenc.FMV_X_W)
			if double && xlen != 64 {
				return fmt.Errorf("FMV.X.D requires RV64")
			}
		case 1:
			instr.Op = pick(double, rvenc.FCLASS_D, rvenc.FCLASS_S)
		default:
			return fmt.Errorf("bad FMV.X/FCLASS funct3 %d", funct3)
		}
	case 0x78: // FMV.{W,D}.X
		if rs2 != 0 || funct3 != 0 {
			return fmt.Errorf("bad FMV.to-fp encoding")
		}
		double := funct7&0x1 == 1
		if double && xlen != 64 {
			return fmt.Errorf("FMV.D.X requires RV64")
		}
		instr.Op = pick(double, rvenc.FMV_D_X, rvenc.FMV_W_X)
	case 0x20: // FCVT.S.D / FCVT.D.S (funct7 fully selects, not just low bit)
		switch funct7 {
		case 0x20:
			if rs2 != 1 {
				return fmt.Errorf("bad FCVT.S.D rs2 %d", rs2)
			}
			instr.Op = rvenc.FCVT_S_D
		case 0x21:
			if rs2 != 0 {
				return fmt.Errorf("bad FCVT.D.S rs2 %d", rs2)
			}
			instr.Op = rvenc.FCVT_D_S
		default:
			return fmt.Errorf("bad FCVT.S.D/.D.S funct7 %#x", funct7)
		}
	default:
		return fmt.Errorf("unrecognized OP-FP funct7 %#x", funct7)
	}
	return nil
}
