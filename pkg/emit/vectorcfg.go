package emit

import (
	"github.com/oisee/rvtrans/pkg/helper"
	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

// IsVectorCfg reports whether op's major opcode is OP-V (0x57) with
// funct3=111, i.e. one of VSETVLI/VSETIVLI/VSETVL. pkg/rvdec.Decode32
// deliberately does not recognize this encoding (see its TestDecode32VSetvli);
// dispatch.go special-cases it before falling through to Decode32.
func IsVectorCfg(op uint32) bool {
	return rvenc.Extract(op, 0, 7) == 0x57 && rvenc.Extract(op, 12, 3) == 0x7
}

// vectorCfgOperands is the raw field layout of the three vector-config
// encodings, distinguished by bits[31:30]:
//   - vsetvli  (bit31=0):          rd, rs1, zimm11 = bits[30:20]
//   - vsetivli (bits[31:30]=11):   rd, uimm5 = bits[19:15], zimm10 = bits[29:20]
//   - vsetvl   (bits[31:25]=1000000): rd, rs1, rs2 (register holding vtype)
type vectorCfgOperands struct {
	rd       uint8
	rs1      uint8
	rs2      uint8 // valid only when isVsetvl
	uimm     uint8
	vtypeImm uint32
	isIVLI   bool
	isVsetvl bool
}

func decodeVectorCfg(op uint32) vectorCfgOperands {
	rd := uint8(rvenc.Extract(op, 7, 5))
	top2 := rvenc.Extract(op, 30, 2)

	if top2 == 0x3 {
		return vectorCfgOperands{
			rd:       rd,
			uimm:     uint8(rvenc.Extract(op, 15, 5)),
			vtypeImm: rvenc.Extract(op, 20, 10),
			isIVLI:   true,
		}
	}
	if rvenc.Extract(op, 25, 7) == 0x40 {
		return vectorCfgOperands{
			rd:       rd,
			rs1:      uint8(rvenc.Extract(op, 15, 5)),
			rs2:      uint8(rvenc.Extract(op, 20, 5)),
			isVsetvl: true,
		}
	}
	return vectorCfgOperands{
		rd:       rd,
		rs1:      uint8(rvenc.Extract(op, 15, 5)),
		vtypeImm: rvenc.Extract(op, 20, 11),
	}
}

// EmitVectorCfg emits VSETVLI/VSETIVLI/VSETVL as a single call into the
// helper_vsetvl runtime helper, which performs the vtype parse and the
// AVL-encoding table lookup itself (pkg/vector implements that logic for
// the runtime side; the emitter only packages the raw operands).
func EmitVectorCfg(b ir.Builder, ctx *ir.DecoderContext, op uint32) {
	o := decodeVectorCfg(op)

	rdNonzero := b.MovI(boolImm(o.rd != 0))

	var rs1Pass ir.Temp
	switch {
	case o.isIVLI:
		rs1Pass = b.MovI(int64(o.uimm))
	case o.rs1 == 0:
		rs1Pass = b.MovI(0)
	default:
		rs1Pass = b.ReadGPR(mustGPR(o.rs1))
	}

	isRs1Imm := b.MovI(boolImm(o.isIVLI))

	var vtypeDesc ir.Temp
	if o.isVsetvl {
		vtypeDesc = b.ReadGPR(mustGPR(o.rs2))
	} else {
		vtypeDesc = b.MovI(int64(o.vtypeImm))
	}

	vl := b.Helper(string(helper.VSetVL), []ir.Temp{rdNonzero, rs1Pass, isRs1Imm, vtypeDesc}, true)
	b.FreeTemp(rdNonzero)
	b.FreeTemp(rs1Pass)
	b.FreeTemp(isRs1Imm)
	b.FreeTemp(vtypeDesc)

	b.WriteGPR(o.rd, vl)
	b.FreeTemp(vl)

	// A vtype/vl change can affect how subsequent vector instructions in
	// this same block should be decoded, so close the block the same way
	// a CSR write does.
	ctx.State = ir.StateStop
}

func boolImm(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
