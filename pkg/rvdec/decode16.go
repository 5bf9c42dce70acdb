package rvdec

import (
	"fmt"

	"github.com/oisee/rvtrans/pkg/rvenc"
)

// cReg expands a 3-bit compressed register field (rs1'/rs2'/rd') to the
// full 5-bit register number: x8..x15, per the RISC-V C-extension spec.
func cReg(field uint16) uint8 {
	return uint8(field&0x7) + 8
}

// Decode16 decodes a 16-bit Compressed (C) instruction, producing the
// Instruction the 32-bit equivalent would have produced (e.g. C.ADDI4SPN
// expands to an ADDI operand tuple). xlen selects between the RV32- and
// RV64/128-specific quadrant-2/quadrant-0 encodings that alias the same
// bit pattern to different operations (C.FLW on RV32 vs C.LD on RV64).
//
// Grounded on LMMilewski-riscv-emu/rvc.go's quadrant (bits[1:0]) + funct3
// dispatch; the nested switches below follow that file's structure one
// quadrant at a time.
func Decode16(in uint16, xlen int) (rvenc.Instruction, error) {
	quadrant := in & 0x3
	funct3 := (in >> 13) & 0x7

	instr := rvenc.Instruction{Compressed: true, Length: 2}

	switch quadrant {
	case 0:
		return decodeQuadrant0(in, funct3, instr, xlen)
	case 1:
		return decodeQuadrant1(in, funct3, instr, xlen)
	case 2:
		return decodeQuadrant2(in, funct3, instr, xlen)
	default:
		return illegal16(), fmt.Errorf("rvdec: %#04x quadrant 3 is not a 16-bit encoding", in)
	}
}

func illegal16() rvenc.Instruction {
	return rvenc.Instruction{Op: rvenc.ILLEGAL, Compressed: true, Length: 2}
}

func decodeQuadrant0(in uint16, funct3 uint16, instr rvenc.Instruction, xlen int) (rvenc.Instruction, error) {
	rdp := cReg(in >> 2)
	rs1p := cReg(in >> 7)
	switch funct3 {
	case 0x0: // C.ADDI4SPN -> addi rd', x2, nzuimm
		nzuimm := rvenc.ImmCIW(in)
		if nzuimm == 0 {
			return illegal16(), nil
		}
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ADDI, rdp, 2, int64(nzuimm)
	case 0x1: // C.FLD -> fld rd', offset(rs1')
		instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.FLD, rdp, rs1p, 8
		instr.Imm = int64(rvenc.ImmCL64(in))
	case 0x2: // C.LW -> lw rd', offset(rs1')
		instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.LW, rdp, rs1p, 4
		instr.Imm = int64(rvenc.ImmCL32(in))
	case 0x3: // C.FLW (RV32) / C.LD (RV64) -> aliases the same encoding
		instr.Rd, instr.Rs1 = rdp, rs1p
		if xlen == 64 {
			instr.Op, instr.Width = rvenc.LD, 8
			instr.Imm = int64(rvenc.ImmCL64(in))
		} else {
			instr.Op, instr.Width = rvenc.FLW, 4
			instr.Imm = int64(rvenc.ImmCL32(in))
		}
	case 0x5: // C.FSD -> fsd rs2', offset(rs1')
		instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.FSD, rs1p, rdp, 8
		instr.Imm = int64(rvenc.ImmCL64(in))
	case 0x6: // C.SW -> sw rs2', offset(rs1')
		instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.SW, rs1p, rdp, 4
		instr.Imm = int64(rvenc.ImmCL32(in))
	case 0x7: // C.FSW (RV32) / C.SD (RV64)
		instr.Rs1, instr.Rs2 = rs1p, rdp
		if xlen == 64 {
			instr.Op, instr.Width = rvenc.SD, 8
			instr.Imm = int64(rvenc.ImmCL64(in))
		} else {
			instr.Op, instr.Width = rvenc.FSW, 4
			instr.Imm = int64(rvenc.ImmCL32(in))
		}
	default:
		return illegal16(), nil
	}
	return instr, nil
}

func decodeQuadrant1(in uint16, funct3 uint16, instr rvenc.Instruction, xlen int) (rvenc.Instruction, error) {
	rd := uint8(in>>7) & 0x1f
	switch funct3 {
	case 0x0: // C.NOP / C.ADDI -> addi rd, rd, nzimm
		raw := rvenc.ImmCI(in)
		imm := int64(int8(raw<<2)) >> 2 // sign-extend the 6-bit field
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ADDI, rd, rd, imm
	case 0x1: // C.ADDIW (RV64/128 only) -> addiw rd, rd, imm; rd=0 illegal
		if xlen != 64 {
			return illegal16(), nil
		}
		if rd == 0 {
			return illegal16(), nil
		}
		raw := rvenc.ImmCI(in)
		imm := int64(int8(raw<<2)) >> 2
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ADDIW, rd, rd, imm
	case 0x2: // C.LI -> addi rd, x0, imm
		raw := rvenc.ImmCI(in)
		imm := int64(int8(raw<<2)) >> 2
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ADDI, rd, 0, imm
	case 0x3:
		if rd == 2 { // C.ADDI16SP -> addi x2, x2, nzimm
			imm := rvenc.ImmCI16SP(in)
			if imm == 0 {
				return illegal16(), nil
			}
			instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ADDI, 2, 2, imm
		} else { // C.LUI -> lui rd, nzimm (rd != 0, 2)
			imm := rvenc.ImmCLUI(in)
			if imm == 0 {
				return illegal16(), nil
			}
			instr.Op, instr.Rd, instr.Imm = rvenc.LUI, rd, imm
		}
	case 0x4:
		return decodeQuadrant1Arith(in, instr, xlen)
	case 0x5: // C.J -> jal x0, offset
		instr.Op, instr.Rd, instr.Imm = rvenc.JAL, 0, rvenc.ImmCJ(in)
	case 0x6: // C.BEQZ -> beq rs1', x0, offset
		instr.Op, instr.Rs1, instr.Rs2, instr.Imm = rvenc.BEQ, cReg(in>>7), 0, rvenc.ImmCB(in)
	case 0x7: // C.BNEZ -> bne rs1', x0, offset
		instr.Op, instr.Rs1, instr.Rs2, instr.Imm = rvenc.BNE, cReg(in>>7), 0, rvenc.ImmCB(in)
	default:
		return illegal16(), nil
	}
	return instr, nil
}

// decodeQuadrant1Arith handles the funct3=0b100 sub-group: C.SRLI/C.SRAI/
// C.ANDI/C.SUB/C.XOR/C.OR/C.AND/C.SUBW/C.ADDW, muxed on bits [11:10] and,
// within the register-register forms, bits [6:5].
func decodeQuadrant1Arith(in uint16, instr rvenc.Instruction, xlen int) (rvenc.Instruction, error) {
	rdp := cReg(in >> 7)
	funct2 := (in >> 10) & 0x3
	switch funct2 {
	case 0x0: // C.SRLI -> srli rd', rd', shamt
		shamt := rvenc.ImmCShift(in)
		if xlen != 64 && shamt&0x20 != 0 {
			return illegal16(), nil
		}
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.SRLI, rdp, rdp, int64(shamt)
	case 0x1: // C.SRAI
		shamt := rvenc.ImmCShift(in)
		if xlen != 64 && shamt&0x20 != 0 {
			return illegal16(), nil
		}
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.SRAI, rdp, rdp, int64(shamt)
	case 0x2: // C.ANDI -> andi rd', rd', imm
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.ANDI, rdp, rdp, rvenc.ImmCZimm(in)
	case 0x3:
		rs2p := cReg(in >> 2)
		wide := (in>>12)&0x1 != 0
		funct2b := (in >> 5) & 0x3
		if wide {
			if xlen != 64 {
				return illegal16(), nil
			}
			switch funct2b {
			case 0x0: // C.SUBW
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.SUBW, rdp, rdp, rs2p
			case 0x1: // C.ADDW
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.ADDW, rdp, rdp, rs2p
			default:
				return illegal16(), nil
			}
		} else {
			switch funct2b {
			case 0x0: // C.SUB
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.SUB, rdp, rdp, rs2p
			case 0x1: // C.XOR
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.XOR, rdp, rdp, rs2p
			case 0x2: // C.OR
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.OR, rdp, rdp, rs2p
			case 0x3: // C.AND
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.AND, rdp, rdp, rs2p
			}
		}
	}
	return instr, nil
}

func decodeQuadrant2(in uint16, funct3 uint16, instr rvenc.Instruction, xlen int) (rvenc.Instruction, error) {
	rd := uint8(in>>7) & 0x1f
	rs2 := uint8(in>>2) & 0x1f
	switch funct3 {
	case 0x0: // C.SLLI -> slli rd, rd, shamt; rd=0 illegal (HINT on real silicon)
		shamt := rvenc.ImmCShift(in)
		if xlen != 64 && shamt&0x20 != 0 {
			return illegal16(), nil
		}
		if rd == 0 {
			return illegal16(), nil
		}
		instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.SLLI, rd, rd, int64(shamt)
	case 0x1: // C.FLDSP -> fld rd, offset(x2)
		instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.FLD, rd, 2, 8
		instr.Imm = int64(rvenc.ImmCLDSP(in))
	case 0x2: // C.LWSP -> lw rd, offset(x2); rd=0 illegal
		if rd == 0 {
			return illegal16(), nil
		}
		instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.LW, rd, 2, 4
		instr.Imm = int64(rvenc.ImmCLWSP(in))
	case 0x3: // C.FLWSP (RV32) / C.LDSP (RV64)
		if xlen == 64 {
			if rd == 0 {
				return illegal16(), nil
			}
			instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.LD, rd, 2, 8
			instr.Imm = int64(rvenc.ImmCLDSP(in))
		} else {
			instr.Op, instr.Rd, instr.Rs1, instr.Width = rvenc.FLW, rd, 2, 4
			instr.Imm = int64(rvenc.ImmCLWSP(in))
		}
	case 0x4:
		bit12 := (in >> 12) & 0x1
		if bit12 == 0 {
			if rs2 == 0 { // C.JR -> jalr x0, 0(rs1); rs1=0 illegal
				if rd == 0 {
					return illegal16(), nil
				}
				instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.JALR, 0, rd, 0
			} else { // C.MV -> add rd, x0, rs2
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.ADD, rd, 0, rs2
			}
		} else {
			if rd == 0 && rs2 == 0 { // C.EBREAK
				instr.Op = rvenc.EBREAK
			} else if rs2 == 0 { // C.JALR -> jalr x1, 0(rs1)
				instr.Op, instr.Rd, instr.Rs1, instr.Imm = rvenc.JALR, 1, rd, 0
			} else { // C.ADD -> add rd, rd, rs2; rd=0 illegal
				if rd == 0 {
					return illegal16(), nil
				}
				instr.Op, instr.Rd, instr.Rs1, instr.Rs2 = rvenc.ADD, rd, rd, rs2
			}
		}
	case 0x5: // C.FSDSP -> fsd rs2, offset(x2)
		instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.FSD, 2, rs2, 8
		instr.Imm = int64(rvenc.ImmCSDSP(in))
	case 0x6: // C.SWSP -> sw rs2, offset(x2)
		instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.SW, 2, rs2, 4
		instr.Imm = int64(rvenc.ImmCSWSP(in))
	case 0x7: // C.FSWSP (RV32) / C.SDSP (RV64)
		if xlen == 64 {
			instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.SD, 2, rs2, 8
			instr.Imm = int64(rvenc.ImmCSDSP(in))
		} else {
			instr.Op, instr.Rs1, instr.Rs2, instr.Width = rvenc.FSW, 2, rs2, 4
			instr.Imm = int64(rvenc.ImmCSWSP(in))
		}
	default:
		return illegal16(), nil
	}
	return instr, nil
}
