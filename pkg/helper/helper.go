// Package helper names the external helper routines the emitter calls by
// symbol (spec.md §6: "symbols are resolved at link time and collected by
// a gen_helpers() initialization step"). This package owns only the
// contract — names, and a registry a back end uses to confirm every name
// the emitter references actually resolves — never an implementation of
// the helpers themselves (those are FP arithmetic, CSR access, privilege
// transitions, vector arithmetic: explicitly out of this module's scope).
package helper

// Name identifies one external helper symbol.
type Name string

// Exception raise and debug helpers.
const (
	RaiseException        Name = "raise_exception"
	RaiseExceptionBadAddr  Name = "raise_exception_bad_addr"
	RaiseDebugException   Name = "raise_debug_exception"
)

// Privilege/system helpers.
const (
	SRet       Name = "sret"
	MRet       Name = "mret"
	WFI        Name = "wfi"
	TLBFlush   Name = "tlb_flush"
	FenceI     Name = "fence_i"
	CSRRW      Name = "csr_rw"
	CSRRS      Name = "csr_rs"
	CSRRC      Name = "csr_rc"
	CSRRWImm   Name = "csr_rw_i"
	CSRRSImm   Name = "csr_rs_i"
	CSRRCImm   Name = "csr_rc_i"
	ReadMStatus Name = "read_mstatus"
)

// FP arithmetic family, one helper per operation+width.
const (
	FAddS Name = "fadd_s"
	FSubS Name = "fsub_s"
	FMulS Name = "fmul_s"
	FDivS Name = "fdiv_s"
	FSqrtS Name = "fsqrt_s"
	FMinS Name = "fmin_s"
	FMaxS Name = "fmax_s"
	FEqS  Name = "feq_s"
	FLtS  Name = "flt_s"
	FLeS  Name = "fle_s"
	FClassS Name = "fclass_s"

	FAddD Name = "fadd_d"
	FSubD Name = "fsub_d"
	FMulD Name = "fmul_d"
	FDivD Name = "fdiv_d"
	FSqrtD Name = "fsqrt_d"
	FMinD Name = "fmin_d"
	FMaxD Name = "fmax_d"
	FEqD  Name = "feq_d"
	FLtD  Name = "flt_d"
	FLeD  Name = "fle_d"
	FClassD Name = "fclass_d"

	FMAddS  Name = "fmadd_s"
	FMSubS  Name = "fmsub_s"
	FNMSubS Name = "fnmsub_s"
	FNMAddS Name = "fnmadd_s"
	FMAddD  Name = "fmadd_d"
	FMSubD  Name = "fmsub_d"
	FNMSubD Name = "fnmsub_d"
	FNMAddD Name = "fnmadd_d"

	// fcvt matrix between {w,wu,l,lu} and {s,d}, plus the s<->d pair.
	FCvtWS  Name = "fcvt_w_s"
	FCvtWUS Name = "fcvt_wu_s"
	FCvtLS  Name = "fcvt_l_s"
	FCvtLUS Name = "fcvt_lu_s"
	FCvtSW  Name = "fcvt_s_w"
	FCvtSWU Name = "fcvt_s_wu"
	FCvtSL  Name = "fcvt_s_l"
	FCvtSLU Name = "fcvt_s_lu"

	FCvtWD  Name = "fcvt_w_d"
	FCvtWUD Name = "fcvt_wu_d"
	FCvtLD  Name = "fcvt_l_d"
	FCvtLUD Name = "fcvt_lu_d"
	FCvtDW  Name = "fcvt_d_w"
	FCvtDWU Name = "fcvt_d_wu"
	FCvtDL  Name = "fcvt_d_l"
	FCvtDLU Name = "fcvt_d_lu"

	FCvtSD Name = "fcvt_s_d"
	FCvtDS Name = "fcvt_d_s"
)

// Vector helpers (executed at runtime, spec.md §4.3 "Vector helpers").
const (
	VSetVL       Name = "helper_vsetvl"
	VMvVI        Name = "helper_vmv_v_i"
	VMvVV        Name = "helper_vmv_v_v"
	VMergeVVM    Name = "helper_vmerge_vvm"
	VMergeVIM    Name = "helper_vmerge_vim"
	VCompressVM  Name = "helper_vcompress_vm"
	VAdcVVM      Name = "helper_vadc_vvm"
	VAdcVIM      Name = "helper_vadc_vim"
	VSbcVVM      Name = "helper_vsbc_vvm"
	VSbcVIM      Name = "helper_vsbc_vim"
	VMAdcVV      Name = "helper_vmadc_vv"
	VMAdcVVM     Name = "helper_vmadc_vvm"
	VMAdcVI      Name = "helper_vmadc_vi"
	VMAdcVIM     Name = "helper_vmadc_vim"
	VMSbcVV      Name = "helper_vmsbc_vv"
	VMSbcVVM     Name = "helper_vmsbc_vvm"
	VMSbcVI      Name = "helper_vmsbc_vi"
	VMSbcVIM     Name = "helper_vmsbc_vim"
)

// Role describes a helper's calling-convention shape: how many temp
// arguments it takes and whether it returns a value. This is metadata
// only; nothing in this module generates code from it.
type Role struct {
	Name      Name
	Returns   bool
	Arity     int // number of temp arguments, not counting the implicit CPU-state pointer
}

// Table is the registration contract: GenHelpers populates one, and the
// emitter (or a test) can ask Lookup to confirm a symbol it is about to
// call actually exists, mirroring spec.md §6's "symbols are resolved at
// link time and collected by a gen_helpers() initialization step."
type Table interface {
	Lookup(n Name) (Role, bool)
	Names() []Name
}

type table struct {
	roles map[Name]Role
}

func (t *table) Lookup(n Name) (Role, bool) {
	r, ok := t.roles[n]
	return r, ok
}

func (t *table) Names() []Name {
	names := make([]Name, 0, len(t.roles))
	for n := range t.roles {
		names = append(names, n)
	}
	return names
}

// GenHelpers builds the full Table of helper roles this module's emitter
// may reference, modeled on spec.md §6's gen_helpers() initialization
// step and (for the flat, allocation-light registry shape) the teacher's
// own pkg/result.Table.
func GenHelpers() Table {
	t := &table{roles: make(map[Name]Role, 96)}
	add := func(n Name, returns bool, arity int) {
		t.roles[n] = Role{Name: n, Returns: returns, Arity: arity}
	}

	add(RaiseException, false, 1)
	add(RaiseExceptionBadAddr, false, 2)
	add(RaiseDebugException, false, 0)

	add(SRet, false, 0)
	add(MRet, false, 0)
	add(WFI, false, 0)
	add(TLBFlush, false, 1)
	add(FenceI, false, 0)
	add(CSRRW, true, 2)
	add(CSRRS, true, 2)
	add(CSRRC, true, 2)
	add(CSRRWImm, true, 2)
	add(CSRRSImm, true, 2)
	add(CSRRCImm, true, 2)
	add(ReadMStatus, true, 0)

	for _, n := range []Name{FAddS, FSubS, FMulS, FDivS, FMinS, FMaxS, FAddD, FSubD, FMulD, FDivD, FMinD, FMaxD} {
		add(n, true, 3) // a, b, rm
	}
	for _, n := range []Name{FSqrtS, FSqrtD} {
		add(n, true, 2) // a, rm
	}
	for _, n := range []Name{FEqS, FLtS, FLeS, FEqD, FLtD, FLeD} {
		add(n, true, 2)
	}
	for _, n := range []Name{FClassS, FClassD} {
		add(n, true, 1)
	}
	for _, n := range []Name{FMAddS, FMSubS, FNMSubS, FNMAddS, FMAddD, FMSubD, FNMSubD, FNMAddD} {
		add(n, true, 4) // a, b, c, rm
	}
	for _, n := range []Name{
		FCvtWS, FCvtWUS, FCvtLS, FCvtLUS, FCvtSW, FCvtSWU, FCvtSL, FCvtSLU,
		FCvtWD, FCvtWUD, FCvtLD, FCvtLUD, FCvtDW, FCvtDWU, FCvtDL, FCvtDLU,
		FCvtSD, FCvtDS,
	} {
		add(n, true, 2) // src, rm
	}

	add(VSetVL, true, 4)        // rd_nonzero, rs1_pass, is_rs1_imm, vtype_imm
	add(VMvVI, false, 2)        // vd, imm
	add(VMvVV, false, 2)        // vd, vs1
	add(VMergeVVM, false, 3)    // vd, vs1, vs2
	add(VMergeVIM, false, 3)    // vd, imm, vs2
	add(VCompressVM, false, 3)  // vd, vs1(mask), vs2
	add(VAdcVVM, false, 3)
	add(VAdcVIM, false, 3)
	add(VSbcVVM, false, 3)
	add(VSbcVIM, false, 3)
	add(VMAdcVV, false, 3)
	add(VMAdcVVM, false, 3)
	add(VMAdcVI, false, 3)
	add(VMAdcVIM, false, 3)
	add(VMSbcVV, false, 3)
	add(VMSbcVVM, false, 3)
	add(VMSbcVI, false, 3)
	add(VMSbcVIM, false, 3)

	return t
}
