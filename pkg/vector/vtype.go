// Package vector implements the RVV runtime helpers: vtype/vl computation
// for vsetvl/vsetvli/vsetivli, the vector register file, and the
// elementwise arithmetic/mask operations spec.md §4.3's "Vector helpers"
// section describes. These run at translation-block *execution* time (the
// frontend only emits a call into helper.VSetVL et al.), so this package
// has no dependency on pkg/ir or pkg/emit.
package vector

// VType holds the decoded vtype CSR fields plus the values derived from
// them. Per the Open Question resolution in spec.md §9, Vlmul is stored
// as a signed shift exponent — never a float64 — and every derived
// quantity is computed with integer shifts.
type VType struct {
	Vsew uint32 // selected element width in bits: 8, 16, 32, or 64
	Vlmul int8  // signed power-of-two exponent in {-3..3}; vflmul = 2^Vlmul
	Vta  bool
	Vma  bool
	Vill bool

	Vlmax uint32
}

// Elen is the max supported element width in bits (no Zve* subset here:
// the full 64-bit element width is always available).
const Elen = 64

// sewField decodes the 3-bit vsew field of the vtype encoding to a bit width.
func sewField(field uint32) uint32 {
	return 1 << (field + 3)
}

// DecodeVType parses the 11-bit vtype immediate used by VSETVLI/VSETIVLI
// (bits: vill | reserved | vma | vta | vsew[2:0] | vlmul[2:0]) into a
// VType, computing Vlmax from vlenb (bytes per vector register).
//
// Grounded on spec.md §4.3's helper_vsetvl description: vsew = 1 <<
// (vsew_field + 3); vlmul as a signed 3-bit fractional exponent; vlmax =
// vlenb*8/vsew * vflmul (here: vlenb*8 >> vsew_shift, shifted left/right
// by vlmul instead of multiplied by a float).
func DecodeVType(vtypeImm uint32, vlenb uint32) VType {
	sewBits := (vtypeImm >> 3) & 0x7
	lmulField := vtypeImm & 0x7
	vta := (vtypeImm>>6)&0x1 != 0
	vma := (vtypeImm>>7)&0x1 != 0

	vt := VType{
		Vsew:  sewField(sewBits),
		Vlmul: decodeLmul(lmulField),
		Vta:   vta,
		Vma:   vma,
	}

	if vt.Vlmul < -3 || vt.Vlmul > 3 {
		vt.Vill = true
	}
	if vt.Vsew > Elen {
		vt.Vill = true
	}
	// vsew must not exceed min(vflmul,1)*elen: for integer LMUL (Vlmul >= 0)
	// min(vflmul,1) is 1, already covered by the Elen check above; for
	// fractional LMUL (Vlmul < 0) vflmul = 1/2^(-Vlmul) < 1, so the bound
	// tightens to Elen >> -Vlmul. E.g. e64,mf8 (Vsew=64, Vlmul=-3) needs
	// 64 <= 64>>3 == 8, which is false, so vill must be set.
	if vt.Vlmul < 0 && vt.Vsew > uint32(Elen)>>uint(-vt.Vlmul) {
		vt.Vill = true
	}
	if (vtypeImm &^ 0xff) != 0 {
		vt.Vill = true
	}

	if vt.Vill {
		vt.Vlmax = 0
		return vt
	}

	vlenBits := uint64(vlenb) * 8
	var vlmax uint64
	if vt.Vlmul >= 0 {
		vlmax = (vlenBits << uint(vt.Vlmul)) / uint64(vt.Vsew)
	} else {
		vlmax = (vlenBits / uint64(vt.Vsew)) >> uint(-vt.Vlmul)
	}
	vt.Vlmax = uint32(vlmax)
	return vt
}

// decodeLmul maps the 3-bit vlmul field to a signed exponent: 0..3 are
// integer LMUL 1,2,4,8; 5..7 (0b101..0b111) are fractional LMUL 1/8,1/4,1/2
// encoded as two's complement (-3..-1); 4 is reserved.
func decodeLmul(field uint32) int8 {
	if field < 4 {
		return int8(field)
	}
	return int8(field) - 8
}

// AVLVariant identifies which vsetvl form is computing vl, selecting the
// row of the AVL-encoding table in spec.md §4.3.
type AVLVariant int

const (
	VSetVL AVLVariant = iota
	VSetVLI
	VSetIVLI
)

// ComputeVL implements the AVL-encoding table from spec.md §4.3. rs1Pass
// is either the register value (vsetvl/vsetvli) or the 5-bit immediate
// (vsetivli, per IsRs1Imm); rdNonzero/rs1Nonzero report whether the
// encoded rd/rs1 fields were x0.
func ComputeVL(variant AVLVariant, vt VType, prevVL uint32, rs1Pass uint64, rdNonzero, rs1Nonzero bool) uint32 {
	if vt.Vlmax == 0 {
		return 0
	}
	if variant == VSetIVLI {
		return minU32(uint32(rs1Pass), vt.Vlmax)
	}
	switch {
	case !rdNonzero && !rs1Nonzero:
		return minU32(prevVL, vt.Vlmax)
	case !rs1Nonzero && rdNonzero:
		return vt.Vlmax
	default:
		return minU32(uint32(rs1Pass), vt.Vlmax)
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
