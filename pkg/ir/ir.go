// Package ir defines the capability interface the emitter calls back into,
// and the small set of value types that flow across that boundary: an
// opaque temp handle, a condition code, and the per-block decoder context.
//
// Nothing in this package generates native code. The real code-generating
// back end lives outside this module (spec.md §1 lists it as an external
// collaborator); pkg/irtext supplies a textual stand-in used by tests and
// the CLI.
package ir

// Temp is an opaque handle to a host-side scratch value, analogous to the
// teacher pack's inst.OpCode: a compact id the emitter passes around
// without ever inspecting its bits. Only Builder methods may produce or
// consume one.
type Temp uint32

// Label names a branch target within one translation block's IR stream.
type Label uint32

// Cond is a comparison kind used by conditional branches and selects.
type Cond uint8

const (
	CondEQ Cond = iota
	CondNE
	CondLT  // signed <
	CondGE  // signed >=
	CondLTU // unsigned <
	CondGEU // unsigned >=
)

// ALUOp names a binary arithmetic/logic primitive the Builder supports.
type ALUOp uint8

const (
	OpAdd ALUOp = iota
	OpSub
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr  // logical (unsigned) right shift
	OpSar  // arithmetic (signed) right shift
	OpMul  // low XLEN bits of the product
	OpMulHS // high bits of a signed*signed widening multiply
	OpMulHU // high bits of an unsigned*unsigned widening multiply
	OpDiv   // signed division, native trapping semantics
	OpDivU
	OpRem // signed remainder, native trapping semantics
	OpRemU
	OpSetCond // dest = (a <cond> b) ? 1 : 0
)

// BlockState is the decoder context's control-flow status, mutated only by
// the emitter. See spec.md §3 "Decoder context".
type BlockState uint8

const (
	// StateNone means keep decoding: no control-flow redirection occurred.
	StateNone BlockState = iota
	// StateStop means end the block and re-enter execution for side
	// effects (CSR write, fence.i, WFI, xRET, syscall).
	StateStop
	// StateBranch means control flow has been redirected; the emitter has
	// already produced the exit sequence (goto_tb or exit_tb).
	StateBranch
)

// DecoderContext is per-block scratch passed explicitly to every emitter
// entry point, replacing the global mutable singletons spec.md §9 calls
// out ("IR temps for registers, the single TB being emitted"). Mirrors the
// teacher's own small, explicitly-passed state structs (cpu.State) rather
// than a package-global.
type DecoderContext struct {
	PC         uint64
	NextPC     uint64
	Opcode     uint32
	MMUIdx     int
	SingleStep bool
	RVC        bool // Compressed extension enabled (misalignment checks skip when true)
	XLen       int  // 32 or 64

	State BlockState
}

// Builder is the capability interface the emitter calls back into: moves,
// ALU ops, loads/stores, labels/branches, the two block terminators, and
// named helper calls. Grounded on spec.md §9's explicit guidance to model
// the external back end as "a small capability interface with a handful of
// primitives" rather than a polymorphic/class-based abstraction — there is
// no teacher analogue since the teacher executes directly against cpu.State
// instead of emitting an IR, so this interface shape is sized to exactly
// the primitive list spec.md §4.3 enumerates.
type Builder interface {
	// NewTemp allocates a fresh scratch temp.
	NewTemp() Temp
	// FreeTemp releases a temp back to the allocator. Every NewTemp must be
	// matched by a FreeTemp before the block's IR is finalized; an
	// imbalance is the "host invariant violation" spec.md §7 describes.
	FreeTemp(Temp)

	// MovI materializes a constant into a fresh temp.
	MovI(imm int64) Temp
	// MovTemp copies src into a fresh temp.
	MovTemp(src Temp) Temp

	// ReadGPR returns a temp holding guest register n's value, emitting a
	// constant-zero move when n == 0 (spec.md §4.3 "Register access
	// contract").
	ReadGPR(n uint8) Temp
	// WriteGPR emits a register move when n != 0; a no-op when n == 0.
	WriteGPR(n uint8, v Temp)

	// ReadFPR / WriteFPR are the floating-point register bank analogues
	// of ReadGPR/WriteGPR; f0..f31 all have physical storage (no x0-style
	// special case).
	ReadFPR(n uint8) Temp
	WriteFPR(n uint8, v Temp)

	// ALU computes dst = a <op> b in a fresh temp.
	ALU(op ALUOp, a, b Temp) Temp
	// ALUCond computes the condition-code form of ALU's OpSetCond.
	ALUCond(cond Cond, a, b Temp) Temp
	// Select performs a conditional move: pred != 0 picks onTrue, else onFalse.
	Select(pred, onTrue, onFalse Temp) Temp

	// Load reads width bytes (1/2/4/8) from addr through mmuidx, zero- or
	// sign-extending per unsigned, and sets the symbolic guest PC to pc
	// first so a faulting access reports the correct instruction address.
	Load(addr Temp, width uint8, unsigned bool, mmuidx int, pc uint64) Temp
	// Store writes the low width bytes of v to addr through mmuidx, having
	// first set the symbolic guest PC to pc.
	Store(addr, v Temp, width uint8, mmuidx int, pc uint64)

	// Label allocates a new branch target, not yet placed.
	Label() Label
	// Place binds a previously allocated Label to the current IR position.
	Place(Label)
	// BranchCond emits a conditional branch to target when pred != 0.
	BranchCond(pred Temp, target Label)
	// Branch emits an unconditional branch to target.
	Branch(target Label)

	// GotoTB emits the direct-jump terminator chaining slot n of the
	// current TB to the TB starting at destPC, when destPC lies in the
	// same page as the current TB's start PC and single-step is off;
	// otherwise the back end falls back to writing destPC to the guest
	// pc slot and exiting uncahined. n distinguishes the (at most two)
	// chaining slots of one TB.
	GotoTB(n int, destPC uint64)
	// ExitTB unconditionally returns control to the execution engine,
	// after writing pc (if pc != nil) to the guest pc slot.
	ExitTB(pc *Temp)

	// Helper invokes a named external helper routine (FP arithmetic, CSR
	// read/modify/write, WFI, xRET, fence.i, TLB flush, exception raise,
	// vector helpers...). The first implicit argument is always the guest
	// CPU state pointer, owned by the back end; args are temps. A helper
	// with no return value should be called with returns=false.
	Helper(name string, args []Temp, returns bool) Temp

	// RaiseIllegal emits an Illegal-Instruction exception raise.
	RaiseIllegal(pc uint64)
	// RaiseMisaligned emits an Instruction-Address-Misaligned exception
	// raise carrying the bad address.
	RaiseMisaligned(pc uint64, badAddr uint64)
	// RaiseDebug emits a debug exception raise (breakpoint hit).
	RaiseDebug(pc uint64)

	// LiveTemps reports the number of temps allocated via NewTemp that have
	// not yet been released via FreeTemp. pkg/tb's builder loop calls this
	// once per decoded instruction to check the "host invariant violation"
	// sentinel spec.md §7 describes.
	LiveTemps() int
	// IRSize reports the number of ops emitted so far. pkg/tb's builder
	// loop uses the value observed before emitting an instruction as that
	// instruction's op-position key (spec.md §4.4 step 2, §6
	// restore_state_to_opc), and the current value against a caller-
	// supplied cap for the "host IR buffer near capacity" exit condition.
	IRSize() int
}
