package vector

import (
	"fmt"
	"math/bits"
)

// validSEW reports whether sew is one of the four RVV element widths.
// spec.md §4.3: "raises Illegal on any other value."
func validSEW(sew uint32) error {
	switch sew {
	case 8, 16, 32, 64:
		return nil
	default:
		return fmt.Errorf("vector: unsupported vsew %d", sew)
	}
}

// checkAlign validates a register index against LMUL-imposed alignment:
// a register group of size 2^lmul (for integer lmul >= 1) must start on a
// multiple of that size. Fractional LMUL (lmul < 1) imposes no alignment.
// spec.md §4.3: "validates operand indices against LMUL-imposed alignment
// (V_IDX_INVALID); raises Illegal on failure."
func checkAlign(reg int, vlmul int8) error {
	if vlmul <= 0 {
		return nil
	}
	group := 1 << uint(vlmul)
	if reg%group != 0 {
		return fmt.Errorf("vector: register v%d misaligned for lmul=%d (group size %d)", reg, vlmul, group)
	}
	return nil
}

// requireVec is the mstatus.VS guard every vector helper performs before
// touching the register file (spec.md §4.3: "guards on mstatus.VS being
// enabled; raises Illegal otherwise via require_vec").
func requireVec(vsEnabled bool) error {
	if !vsEnabled {
		return fmt.Errorf("vector: mstatus.VS disabled")
	}
	return nil
}

// Context carries the per-call runtime parameters every elementwise
// helper needs: the active element range, width, and the VS enable gate.
// Grounded on pkg/ir.DecoderContext's "small, explicitly-passed context"
// shape — here the equivalent for the vector runtime layer instead of the
// emitter.
type Context struct {
	VS     bool
	VStart uint32
	VL     uint32
	SEW    uint32
	VLMul  int8
}

func (c Context) validate(regs ...int) error {
	if err := requireVec(c.VS); err != nil {
		return err
	}
	if err := validSEW(c.SEW); err != nil {
		return err
	}
	for _, r := range regs {
		if err := checkAlign(r, c.VLMul); err != nil {
			return err
		}
	}
	return nil
}

func signBit(sew uint32) uint64 {
	return 1 << (sew - 1)
}

func mask(sew uint32) uint64 {
	if sew == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << sew) - 1
}

// MvVI implements vmv.v.i: every active element of vd becomes imm.
func MvVI(rf *RegFile, c Context, vd int, imm uint64) error {
	if err := c.validate(vd); err != nil {
		return err
	}
	imm &= mask(c.SEW)
	for i := c.VStart; i < c.VL; i++ {
		rf.SetElem(vd, i, c.SEW, imm)
	}
	return nil
}

// MvVV implements vmv.v.v: every active element of vd is copied from vs1.
func MvVV(rf *RegFile, c Context, vd, vs1 int) error {
	if err := c.validate(vd, vs1); err != nil {
		return err
	}
	for i := c.VStart; i < c.VL; i++ {
		rf.SetElem(vd, i, c.SEW, rf.Elem(vs1, i, c.SEW))
	}
	return nil
}

// MergeVVM implements vmerge.vvm: vd[i] = mask bit i ? vs1[i] : vs2[i].
func MergeVVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	if err := c.validate(vd, vs1, vs2); err != nil {
		return err
	}
	for i := c.VStart; i < c.VL; i++ {
		if rf.MaskBit(i) {
			rf.SetElem(vd, i, c.SEW, rf.Elem(vs1, i, c.SEW))
		} else {
			rf.SetElem(vd, i, c.SEW, rf.Elem(vs2, i, c.SEW))
		}
	}
	return nil
}

// MergeVIM implements vmerge.vim: vd[i] = mask bit i ? imm : vs2[i].
func MergeVIM(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	if err := c.validate(vd, vs2); err != nil {
		return err
	}
	imm &= mask(c.SEW)
	for i := c.VStart; i < c.VL; i++ {
		if rf.MaskBit(i) {
			rf.SetElem(vd, i, c.SEW, imm)
		} else {
			rf.SetElem(vd, i, c.SEW, rf.Elem(vs2, i, c.SEW))
		}
	}
	return nil
}

// CompressVM implements vcompress.vm: packs the elements of vs2 selected
// by mask register vs1 into vd contiguously, starting at element 0.
// Requires vstart == 0, per spec.md §4.3.
func CompressVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	if err := c.validate(vd, vs1, vs2); err != nil {
		return err
	}
	if c.VStart != 0 {
		return fmt.Errorf("vector: vcompress.vm requires vstart == 0, got %d", c.VStart)
	}
	out := uint32(0)
	for i := uint32(0); i < c.VL; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if rf.Regs[vs1][byteIdx]&(1<<bitIdx) == 0 {
			continue
		}
		rf.SetElem(vd, out, c.SEW, rf.Elem(vs2, i, c.SEW))
		out++
	}
	return nil
}

// carryMask extracts the mask-register-0 carry/borrow bit for element i,
// used by the .vvm/.vim adc/sbc variants.
func carryMask(rf *RegFile, i uint32) uint64 {
	if rf.MaskBit(i) {
		return 1
	}
	return 0
}

// AdcVVM implements vadc.vvm: vd[i] = vs2[i] + vs1[i] + carry-in bit i.
func AdcVVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	if err := c.validate(vd, vs1, vs2); err != nil {
		return err
	}
	m := mask(c.SEW)
	for i := c.VStart; i < c.VL; i++ {
		sum := (rf.Elem(vs2, i, c.SEW) + rf.Elem(vs1, i, c.SEW) + carryMask(rf, i)) & m
		rf.SetElem(vd, i, c.SEW, sum)
	}
	return nil
}

// AdcVIM implements vadc.vim: vd[i] = vs2[i] + imm + carry-in bit i.
func AdcVIM(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	if err := c.validate(vd, vs2); err != nil {
		return err
	}
	m := mask(c.SEW)
	imm &= m
	for i := c.VStart; i < c.VL; i++ {
		sum := (rf.Elem(vs2, i, c.SEW) + imm + carryMask(rf, i)) & m
		rf.SetElem(vd, i, c.SEW, sum)
	}
	return nil
}

// SbcVVM implements vsbc.vvm: vd[i] = vs2[i] - vs1[i] - borrow-in bit i.
func SbcVVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	if err := c.validate(vd, vs1, vs2); err != nil {
		return err
	}
	m := mask(c.SEW)
	for i := c.VStart; i < c.VL; i++ {
		diff := (rf.Elem(vs2, i, c.SEW) - rf.Elem(vs1, i, c.SEW) - carryMask(rf, i)) & m
		rf.SetElem(vd, i, c.SEW, diff)
	}
	return nil
}

// SbcVIM implements vsbc.vim: vd[i] = vs2[i] - imm - borrow-in bit i.
func SbcVIM(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	if err := c.validate(vd, vs2); err != nil {
		return err
	}
	m := mask(c.SEW)
	imm &= m
	for i := c.VStart; i < c.VL; i++ {
		diff := (rf.Elem(vs2, i, c.SEW) - imm - carryMask(rf, i)) & m
		rf.SetElem(vd, i, c.SEW, diff)
	}
	return nil
}

// overflowedAdd reports whether a + b + carry overflowed a sew-bit
// unsigned lane, including the boundary case spec.md §4.3 calls out
// explicitly: "carry && result+1 == 0" (i.e. a+b == all-ones and carry=1,
// which wraps exactly to zero and would otherwise look carry-free).
func overflowedAdd(a, b, carry uint64, sew uint32) bool {
	if sew == 64 {
		sum, c1 := bits.Add64(a, b, 0)
		_, c2 := bits.Add64(sum, carry, 0)
		return c1 != 0 || c2 != 0
	}
	m := mask(sew)
	total := (a & m) + (b & m) + carry
	return total > m
}

// MAdcVV implements vmadc.vv: mask destination bit = overflow of vs2+vs1
// (no incoming carry).
func MAdcVV(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	return madcCommon(rf, c, vd, vs1, vs2, 0, false)
}

// MAdcVVM implements vmadc.vvm: mask destination bit = overflow of
// vs2+vs1+carry-in bit i.
func MAdcVVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	return madcCommon(rf, c, vd, vs1, vs2, 0, true)
}

// MAdcVI implements vmadc.vi: mask destination bit = overflow of vs2+imm
// (no incoming carry).
func MAdcVI(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	return madcCommon(rf, c, vd, -1, vs2, imm, false)
}

// MAdcVIM implements vmadc.vim: mask destination bit = overflow of
// vs2+imm+carry-in bit i.
func MAdcVIM(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	return madcCommon(rf, c, vd, -1, vs2, imm, true)
}

func madcCommon(rf *RegFile, c Context, vd, vs1, vs2 int, imm uint64, withCarryIn bool) error {
	regs := []int{vd, vs2}
	if vs1 >= 0 {
		regs = append(regs, vs1)
	}
	if err := c.validate(regs...); err != nil {
		return err
	}
	for i := c.VStart; i < c.VL; i++ {
		b := rf.Elem(vs2, i, c.SEW)
		var a uint64
		if vs1 >= 0 {
			a = rf.Elem(vs1, i, c.SEW)
		} else {
			a = imm & mask(c.SEW)
		}
		var carry uint64
		if withCarryIn {
			carry = carryMask(rf, i)
		}
		ov := overflowedAdd(a, b, carry, c.SEW)
		rf.SetMaskBit(vd, i, ov)
	}
	return nil
}

// MSbcVV / MSbcVVM / MSbcVI / MSbcVIM are the vmsbc borrow-mask
// counterparts, recording whether vs2-vs1(-borrow) underflowed.
func MSbcVV(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	return msbcCommon(rf, c, vd, vs1, vs2, imm0, false)
}

func MSbcVVM(rf *RegFile, c Context, vd, vs1, vs2 int) error {
	return msbcCommon(rf, c, vd, vs1, vs2, imm0, true)
}

func MSbcVI(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	return msbcCommon(rf, c, vd, -1, vs2, imm, false)
}

func MSbcVIM(rf *RegFile, c Context, vd int, imm uint64, vs2 int) error {
	return msbcCommon(rf, c, vd, -1, vs2, imm, true)
}

const imm0 = 0

// underflowedSub reports whether b2 - b1 - borrow underflowed a sew-bit
// unsigned lane, mirroring overflowedAdd's SEW=64 boundary handling: at
// SEW=64, b1+borrow itself can wrap (b1 all-ones, borrow=1 wraps to 0),
// which would otherwise hide an underflow, so the borrow-in addition is
// done with bits.Add64 rather than plain uint64 addition.
func underflowedSub(b2, b1, borrow uint64, sew uint32) bool {
	if sew == 64 {
		sum, carryOut := bits.Add64(b1, borrow, 0)
		return b2 < sum || carryOut != 0
	}
	m := mask(sew)
	return (b2 & m) < (b1&m)+borrow
}

func msbcCommon(rf *RegFile, c Context, vd, vs1, vs2 int, imm uint64, withBorrowIn bool) error {
	regs := []int{vd, vs2}
	if vs1 >= 0 {
		regs = append(regs, vs1)
	}
	if err := c.validate(regs...); err != nil {
		return err
	}
	m := mask(c.SEW)
	for i := c.VStart; i < c.VL; i++ {
		b2 := rf.Elem(vs2, i, c.SEW)
		var b1 uint64
		if vs1 >= 0 {
			b1 = rf.Elem(vs1, i, c.SEW)
		} else {
			b1 = imm & m
		}
		var borrow uint64
		if withBorrowIn {
			borrow = carryMask(rf, i)
		}
		underflow := underflowedSub(b2, b1, borrow, c.SEW)
		rf.SetMaskBit(vd, i, underflow)
	}
	return nil
}
