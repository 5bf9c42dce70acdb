// Package rvenc holds the pure, side-effect-free pieces of the RISC-V
// frontend: bit-field extraction, sign extension, immediate reconstruction,
// the decoded-operation enumeration, and the operand tuple the decoder
// produces. Nothing here touches guest state or emits IR.
package rvenc

// Extract returns the unsigned bit range [start, start+len) of op.
func Extract(op uint32, start, length uint) uint32 {
	return (op >> start) & ((1 << length) - 1)
}

// Extract64 is Extract for 64-bit fields (used by a few C-extension and
// CSR-adjacent reconstructions that would otherwise overflow uint32 math).
func Extract64(op uint64, start, length uint) uint64 {
	return (op >> start) & ((1 << length) - 1)
}

// SExtract returns the bit range [start, start+len) of op, sign-extended
// to the full 64-bit width from its top bit.
func SExtract(op uint32, start, length uint) int64 {
	v := Extract(op, start, length)
	return signExtend(uint64(v), length-1)
}

// signExtend widens v, treating bit as the sign bit, to a full 64-bit
// two's-complement value. Ported from the teacher pack's own sign-extension
// idiom: a precomputed per-bit-width table built once in init(), rather than
// a shift-pair computed on every call.
func signExtend(v uint64, bit uint) int64 {
	b := signBits[bit]
	if v&b.signBit != 0 {
		return int64(v | b.ones)
	}
	return int64(v)
}

var signBits [64]struct {
	signBit uint64
	ones    uint64
}

func init() {
	b := uint64(1)
	ones := ^uint64(0)
	for i := range signBits {
		signBits[i].signBit = b
		signBits[i].ones = ones
		b <<= 1
		ones <<= 1
	}
}

// SignExtend32 sign-extends the low 32 bits of v (the RV64 "W" instruction
// result) to a full 64-bit value.
func SignExtend32(v uint64) uint64 {
	return uint64(int64(int32(uint32(v))))
}

// --- 32-bit instruction-format immediates (RISC-V spec v2.2, 2.3/2.4/2.5) ---

// ImmI reconstructs the I-type immediate (loads, ALU-immediate, JALR).
func ImmI(op uint32) int64 {
	return SExtract(op, 20, 12)
}

// ImmS reconstructs the S-type immediate (stores).
func ImmS(op uint32) int64 {
	v := Extract(op, 25, 7)<<5 | Extract(op, 7, 5)
	return signExtend(uint64(v), 11)
}

// ImmB reconstructs the B-type immediate (branches). Bit 0 is always zero.
func ImmB(op uint32) int64 {
	v := Extract(op, 31, 1)<<12 |
		Extract(op, 7, 1)<<11 |
		Extract(op, 25, 6)<<5 |
		Extract(op, 8, 4)<<1
	return signExtend(uint64(v), 12)
}

// ImmU reconstructs the U-type immediate (LUI, AUIPC). Already shifted into
// bit position 12; the low 12 bits are zero.
func ImmU(op uint32) int64 {
	return int64(op & 0xFFFFF000)
}

// ImmJ reconstructs the J-type immediate (JAL). Bit 0 is always zero.
func ImmJ(op uint32) int64 {
	v := Extract(op, 31, 1)<<20 |
		Extract(op, 12, 8)<<12 |
		Extract(op, 20, 1)<<11 |
		Extract(op, 21, 10)<<1
	return signExtend(uint64(v), 20)
}

// Shamt5 extracts a 5-bit shift amount (RV32, or RV64 *W forms).
func Shamt5(op uint32) uint32 {
	return Extract(op, 20, 5)
}

// Shamt6 extracts a 6-bit shift amount (RV64 full-width shifts).
func Shamt6(op uint32) uint32 {
	return Extract(op, 20, 6)
}

// --- 16-bit (C) instruction-format immediates ---
// Bit-permutation comments below follow the source-bit -> dest-bit mapping
// convention used by the decode reference this package is grounded on.

// ImmCIW reconstructs the nzuimm field of C.ADDI4SPN: dest bits 9..2.
func ImmCIW(in uint16) uint32 {
	v := uint32(in>>5) & 0xFF
	// 54987623 -> 9876543200
	return v&0xc0>>2 | v&0x3c<<4 | v&0x2<<1 | v&0x1<<3
}

// ImmCL32 reconstructs the uimm field of C.LW/C.SW: dest bits 6:2.
func ImmCL32(in uint16) uint32 {
	v := uint32(in>>8)&0x1c | uint32(in>>5)&0x3
	return (v<<5 | v) & 0x3e << 1 // 54326 -> 6543200
}

// ImmCL64 reconstructs the uimm field of C.LD/C.SD: dest bits 7:3.
func ImmCL64(in uint16) uint32 {
	v := uint32(in>>8)&0x1c | uint32(in>>5)&0x3
	return (v<<6 | v<<1) & 0xf8
}

// ImmCI reconstructs the raw (unpermuted) 6-bit nzimm/imm field shared by
// C.ADDI/C.LI/C.LUI/C.ADDIW/C.SLLI before the instruction-specific
// bit-permutation and sign extension is applied.
func ImmCI(in uint16) uint32 {
	return uint32(in>>7)&0x20 | uint32(in>>2)&0x1f
}

// ImmCI16SP reconstructs the signed nzimm field of C.ADDI16SP.
func ImmCI16SP(in uint16) int64 {
	v := ImmCI(in)
	// 946875 -> 9867540000
	v = v&0x20<<4 | v&0x10 | v&0x8<<3 | v&0x6<<6 | v&0x1<<5
	return signExtend(uint64(v), 9)
}

// ImmCLUI reconstructs the signed nzimm field of C.LUI, already placed at
// bit 12 as LUI expects.
func ImmCLUI(in uint16) int64 {
	v := ImmCI(in)
	return signExtend(uint64(v)<<12, 17)
}

// ImmCLWSP reconstructs the uimm field of C.LWSP: dest bits 7:2.
func ImmCLWSP(in uint16) uint32 {
	v := ImmCI(in)
	return (v<<6 | v) & 0xfc // 543276 -> 76543200
}

// ImmCLDSP reconstructs the uimm field of C.LDSP/C.FLDSP: dest bits 8:3.
func ImmCLDSP(in uint16) uint32 {
	v := ImmCI(in)
	return (v<<6 | v) & 0x1f8 // 543876 -> 876543000
}

// ImmCSS reconstructs the raw 6-bit field of C.SWSP/C.SDSP.
func ImmCSS(in uint16) uint32 {
	return uint32(in>>7) & 0x3f
}

// ImmCSWSP reconstructs the uimm field of C.SWSP: dest bits 7:2.
func ImmCSWSP(in uint16) uint32 {
	v := ImmCSS(in)
	return (v<<6 | v) & 0xfc
}

// ImmCSDSP reconstructs the uimm field of C.SDSP: dest bits 8:3.
func ImmCSDSP(in uint16) uint32 {
	v := ImmCSS(in)
	return (v<<6 | v) & 0x1f8
}

// ImmCJ reconstructs the signed offset field of C.J/C.JAL.
func ImmCJ(in uint16) int64 {
	v := uint32(in>>2) & 0x7ff
	// B498A673215 -> BA9876543210
	v = v&0x200>>5 | v&0x40<<4 | v&0x5a0<<1 | v&0x10<<3 | v&0xe | v&1<<5
	return signExtend(uint64(v), 11)
}

// ImmCB reconstructs the signed offset field of C.BEQZ/C.BNEZ.
func ImmCB(in uint16) int64 {
	v := uint32(in>>8)&0xe0 | uint32(in>>2)&0x1f
	// 84376215 -> 876543210
	v = v&0x80<<1 | v&0x60>>2 | v&0x18<<3 | v&0x6 | v&0x1<<5
	return signExtend(uint64(v), 8)
}

// ImmCShift reconstructs the shift-amount field shared by C.SRLI/C.SRAI/
// C.SLLI, including the bit-12 extension needed on RV64/RV128.
func ImmCShift(in uint16) uint32 {
	return uint32(in>>7)&0x20 | uint32(in>>2)&0x1f
}

// ImmCZimm reconstructs the immediate field of C.ANDI.
func ImmCZimm(in uint16) int64 {
	v := ImmCShift(in)
	return signExtend(uint64(v), 5)
}
