package vector

import "testing"

func TestDecodeVTypeVsetvliScenario(t *testing.T) {
	// vsetvli x5, x0, e32, m1, ta, ma with vlenb=16, rd != 0 (spec.md §8
	// scenario 6): vsew=32, vflmul=1, vlmax=4, vl=4, vill=0.
	const sewE32 = 0x2 // field value 2 -> 1<<(2+3) = 32
	const lmulM1 = 0x0 // field value 0 -> integer lmul 1 (exponent 0)
	vtypeImm := uint32(lmulM1) | uint32(sewE32)<<3 | 1<<6 /* vta */ | 1<<7 /* vma */

	vt := DecodeVType(vtypeImm, 16)
	if vt.Vill {
		t.Fatalf("expected vill=0, got vill=1")
	}
	if vt.Vsew != 32 {
		t.Fatalf("vsew = %d, want 32", vt.Vsew)
	}
	if vt.Vlmul != 0 {
		t.Fatalf("vlmul = %d, want 0 (vflmul=1)", vt.Vlmul)
	}
	if vt.Vlmax != 4 {
		t.Fatalf("vlmax = %d, want 4", vt.Vlmax)
	}

	vl := ComputeVL(VSetVLI, vt, 0, 0, true, false)
	if vl != 4 {
		t.Fatalf("vl = %d, want 4 (rs1=x0, rd!=0 -> vlmax)", vl)
	}
}

func TestDecodeVTypeIllegalLmul(t *testing.T) {
	vtypeImm := uint32(0x4) // lmul field 4 is reserved
	vt := DecodeVType(vtypeImm, 16)
	if !vt.Vill {
		t.Fatalf("expected vill=1 for reserved lmul field")
	}
	if vt.Vlmax != 0 {
		t.Fatalf("vlmax must be 0 when vill, got %d", vt.Vlmax)
	}
}

func TestComputeVLRules(t *testing.T) {
	vt := VType{Vsew: 32, Vlmul: 0, Vlmax: 8}
	if vl := ComputeVL(VSetVL, vt, 5, 0, false, false); vl != 5 {
		t.Fatalf("rd==0 && rs1==0: vl = %d, want min(prevVL, vlmax)=5", vl)
	}
	if vl := ComputeVL(VSetVL, vt, 5, 0, true, false); vl != 8 {
		t.Fatalf("rs1==0 && rd!=0: vl = %d, want vlmax=8", vl)
	}
	if vl := ComputeVL(VSetVL, vt, 5, 3, true, true); vl != 3 {
		t.Fatalf("rs1!=0: vl = %d, want min(rs1Pass, vlmax)=3", vl)
	}
	if vl := ComputeVL(VSetIVLI, vt, 5, 20, true, true); vl != 8 {
		t.Fatalf("vsetivli: vl = %d, want min(uimm, vlmax)=8", vl)
	}
}

func TestRegFileElemRoundTrip(t *testing.T) {
	rf := NewRegFile(16)
	rf.SetElem(1, 2, 32, 0xdeadbeef)
	if got := rf.Elem(1, 2, 32); got != 0xdeadbeef {
		t.Fatalf("elem round trip = %#x, want 0xdeadbeef", got)
	}
}

func TestMaskBitRoundTrip(t *testing.T) {
	rf := NewRegFile(16)
	rf.SetMaskBit(0, 3, true)
	if !rf.MaskBit(3) {
		t.Fatalf("expected mask bit 3 set")
	}
	if rf.MaskBit(4) {
		t.Fatalf("expected mask bit 4 clear")
	}
}

func TestMergeVVM(t *testing.T) {
	rf := NewRegFile(16)
	rf.SetMaskBit(0, 0, true)
	rf.SetMaskBit(0, 1, false)
	rf.SetElem(1, 0, 32, 111)
	rf.SetElem(1, 1, 32, 222)
	rf.SetElem(2, 0, 32, 333)
	rf.SetElem(2, 1, 32, 444)
	c := Context{VS: true, VL: 2, SEW: 32}
	if err := MergeVVM(rf, c, 3, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rf.Elem(3, 0, 32); got != 111 {
		t.Fatalf("vd[0] = %d, want 111 (from vs1, mask set)", got)
	}
	if got := rf.Elem(3, 1, 32); got != 444 {
		t.Fatalf("vd[1] = %d, want 444 (from vs2, mask clear)", got)
	}
}

func TestCompressVM(t *testing.T) {
	rf := NewRegFile(16)
	rf.SetMaskBit(0, 0, true)
	rf.SetMaskBit(0, 1, false)
	rf.SetMaskBit(0, 2, true)
	rf.SetElem(2, 0, 32, 10)
	rf.SetElem(2, 1, 32, 20)
	rf.SetElem(2, 2, 32, 30)
	c := Context{VS: true, VL: 3, SEW: 32}
	if err := CompressVM(rf, c, 3, 0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rf.Elem(3, 0, 32); got != 10 {
		t.Fatalf("compressed[0] = %d, want 10", got)
	}
	if got := rf.Elem(3, 1, 32); got != 30 {
		t.Fatalf("compressed[1] = %d, want 30", got)
	}
}

func TestMAdcVVDetectsOverflow(t *testing.T) {
	rf := NewRegFile(16)
	rf.SetElem(1, 0, 8, 0xff)
	rf.SetElem(2, 0, 8, 0x01)
	c := Context{VS: true, VL: 1, SEW: 8}
	if err := MAdcVV(rf, c, 3, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf.Regs[3][0]&1 == 0 {
		t.Fatalf("expected overflow mask bit set for 0xff+0x01 at sew=8")
	}
}

func TestMAdcVVMCarryBoundaryCase(t *testing.T) {
	// a+b == all-ones, carry-in=1: wraps exactly to zero, must still count
	// as overflow per spec.md's explicit boundary-case note.
	rf := NewRegFile(16)
	rf.SetElem(1, 0, 8, 0xfe)
	rf.SetElem(2, 0, 8, 0x01)
	rf.SetMaskBit(0, 0, true) // carry-in = 1
	c := Context{VS: true, VL: 1, SEW: 8}
	if err := MAdcVVM(rf, c, 3, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf.Regs[3][0]&1 == 0 {
		t.Fatalf("expected overflow for 0xfe+0x01+1 boundary case")
	}
}

func TestDecodeVTypeFractionalLmulIllegal(t *testing.T) {
	// e64,mf8: vsew=64, vlmul=-3 (field 5, vflmul=1/8). vsew > elen>>3==8,
	// so this must set vill even though the lmul field itself is legal.
	const sewE64 = 0x3  // field value 3 -> 1<<(3+3) = 64
	const lmulMf8 = 0x5 // field value 5 -> exponent -3
	vtypeImm := uint32(lmulMf8) | uint32(sewE64)<<3
	vt := DecodeVType(vtypeImm, 16)
	if !vt.Vill {
		t.Fatalf("expected vill=1 for e64,mf8 (vsew exceeds min(vflmul,1)*elen)")
	}
	if vt.Vlmax != 0 {
		t.Fatalf("vlmax must be 0 when vill, got %d", vt.Vlmax)
	}
}

func TestMSbcVVSEW64BorrowBoundaryCase(t *testing.T) {
	// b1 == all-ones, borrow-in=1: b1+borrow wraps exactly to zero at
	// SEW=64, which must still count as an underflow (mirroring vmadc's
	// carry-boundary case above).
	rf := NewRegFile(16)
	rf.SetElem(1, 0, 64, ^uint64(0))
	rf.SetElem(2, 0, 64, 0)
	rf.SetMaskBit(0, 0, true) // borrow-in = 1
	c := Context{VS: true, VL: 1, SEW: 64}
	if err := MSbcVVM(rf, c, 3, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf.Regs[3][0]&1 == 0 {
		t.Fatalf("expected underflow for 0 - all-ones - 1 boundary case at sew=64")
	}
}

func TestValidateRejectsUnsupportedSEW(t *testing.T) {
	rf := NewRegFile(16)
	c := Context{VS: true, VL: 1, SEW: 24}
	if err := MvVI(rf, c, 0, 1); err == nil {
		t.Fatalf("expected error for unsupported vsew=24")
	}
}

func TestValidateRequiresVS(t *testing.T) {
	rf := NewRegFile(16)
	c := Context{VS: false, VL: 1, SEW: 32}
	if err := MvVI(rf, c, 0, 1); err == nil {
		t.Fatalf("expected error when mstatus.VS disabled")
	}
}
