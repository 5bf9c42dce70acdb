package rvenc

import (
	"fmt"
)

// Instruction is the decoder's output: an operation id plus the operand
// tuple the emitter needs. Unlike the raw 16/32-bit encoding, every field
// here is already in its final, sign-extended, XLEN-ready form — spec.md
// requires all immediate sign extension to happen at decode time so the
// emitter never re-derives it.
//
// Mirrors the teacher pack's inst.Instruction (a flat, compact, trivially
// copyable struct keyed by an OpCode rather than the raw bytes), widened
// with the extra operand slots RISC-V's larger instruction-format family
// needs (three source registers for FMA, a rounding mode, a CSR number,
// fence predicate/successor bits, atomic ordering bits, and a memory
// access width/signedness pair for loads and stores).
type Instruction struct {
	Op OpCode

	Rd, Rs1, Rs2, Rs3 uint8 // register numbers, 0..31
	Imm               int64 // already sign-extended to 64 bits where applicable

	Rm  uint8  // FP rounding mode (funct3 on FP ops)
	Csr uint16 // CSR address (SYSTEM group)

	Pred, Succ uint8 // FENCE predecessor/successor bit masks

	Aq, Rl bool // atomic acquire/release bits (AMO, LR/SC)

	Width    uint8 // memory access width in bytes: 1, 2, 4, or 8
	Unsigned bool  // zero- vs sign-extend on load

	// Vector-configuration operand encoding (VSETVLI/VSETIVLI/VSETVL).
	VTypeImm uint32 // the 11-bit vtype immediate (VSETVLI/VSETIVLI)
	IsRs1Imm bool   // true for VSETIVLI: Rs1 field is instead a 5-bit uimm AVL

	Compressed bool // true if this Instruction was expanded from a 16-bit C form
	Length     int  // 2 or 4, the guest byte length of the source encoding
}

// Disassemble renders instr as Catalog's mnemonic followed by its operands
// in a per-Format layout. The layout is close to assembler syntax but not
// identical: every register prints as xN (FP registers too), loads print
// as "rd, rs1, imm" and branches as "rs2, imm(rs1)". Unknown/illegal instructions
// disassemble to "illegal", matching spec.md §8's round-trip property.
func Disassemble(instr Instruction) string {
	if instr.Op == ILLEGAL || int(instr.Op) >= len(Catalog) {
		return "illegal"
	}
	info := Catalog[instr.Op]
	switch info.Format {
	case FormatR:
		return regFmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Rs2)
	case FormatI:
		return imm3Fmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Imm)
	case FormatS:
		return storeFmt(info.Mnemonic, instr.Rs1, instr.Rs2, instr.Imm)
	case FormatB:
		return storeFmt(info.Mnemonic, instr.Rs1, instr.Rs2, instr.Imm)
	case FormatU, FormatJ:
		return uFmt(info.Mnemonic, instr.Rd, instr.Imm)
	case FormatFence:
		return info.Mnemonic
	case FormatCSR:
		return csrFmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Csr)
	case FormatAMO:
		return regFmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Rs2)
	case FormatR4:
		return r4Fmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Rs2, instr.Rs3)
	case FormatFPR:
		return regFmt(info.Mnemonic, instr.Rd, instr.Rs1, instr.Rs2)
	case FormatFPR1:
		return imm3Fmt(info.Mnemonic, instr.Rd, instr.Rs1, 0)
	case FormatVSetVL:
		return info.Mnemonic
	default:
		return info.Mnemonic
	}
}

func regName(n uint8) string {
	return fmt.Sprintf("x%d", n)
}

func regFmt(mnemonic string, rd, rs1, rs2 uint8) string {
	return fmt.Sprintf("%s %s, %s, %s", mnemonic, regName(rd), regName(rs1), regName(rs2))
}

func r4Fmt(mnemonic string, rd, rs1, rs2, rs3 uint8) string {
	return fmt.Sprintf("%s %s, %s, %s, %s", mnemonic, regName(rd), regName(rs1), regName(rs2), regName(rs3))
}

func imm3Fmt(mnemonic string, rd, rs1 uint8, imm int64) string {
	return fmt.Sprintf("%s %s, %s, %d", mnemonic, regName(rd), regName(rs1), imm)
}

func storeFmt(mnemonic string, rs1, rs2 uint8, imm int64) string {
	return fmt.Sprintf("%s %s, %d(%s)", mnemonic, regName(rs2), imm, regName(rs1))
}

func uFmt(mnemonic string, rd uint8, imm int64) string {
	return fmt.Sprintf("%s %s, %d", mnemonic, regName(rd), imm)
}

func csrFmt(mnemonic string, rd, rs1 uint8, csr uint16) string {
	return fmt.Sprintf("%s %s, %d, %s", mnemonic, regName(rd), csr, regName(rs1))
}
