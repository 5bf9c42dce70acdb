// Package emit is the IR emitter: one file per decoded instruction group,
// each a switch on rvenc.OpCode dispatching to a handler, directly
// mirroring the single large switch in the teacher's pkg/cpu/exec.Exec —
// split by decode family instead of kept in one function, per spec.md
// §4.3's explicit call for "a family of routines, one per major decoded
// group."
package emit

import (
	"fmt"

	"github.com/oisee/rvtrans/pkg/ir"
)

// xlenMask returns the mask selecting the low xlen bits of a shift amount.
func xlenMask(xlen int) int64 {
	if xlen == 64 {
		return 63
	}
	return 31
}

// sext32Temp emits the RV64 "W"-form post-op sign extension: the low 32
// bits of v, sign-extended to 64. spec.md §4.3: "the RV64 W variants...
// sign-extend the 32-bit result to 64 bits."
func sext32Temp(b ir.Builder, v ir.Temp) ir.Temp {
	shift := b.MovI(32)
	shl := b.ALU(ir.OpShl, v, shift)
	b.FreeTemp(shift)
	shift2 := b.MovI(32)
	out := b.ALU(ir.OpSar, shl, shift2)
	b.FreeTemp(shift2)
	b.FreeTemp(shl)
	return out
}

// zext32Temp truncates v to its low 32 bits, zero-extended to 64. Needed
// wherever a W-form operand itself (not just the final result) must be
// masked down to 32 bits before the op runs — unlike ADDW/SUBW/SLLW,
// SRLW/DIVUW/REMUW read the operand width, not just the result width.
func zext32Temp(b ir.Builder, v ir.Temp) ir.Temp {
	mask := b.MovI(0xFFFFFFFF)
	out := b.ALU(ir.OpAnd, v, mask)
	b.FreeTemp(mask)
	return out
}

// mustGPR is a defensive helper used where a register number is expected
// to already be in range 0..31 (the decoder guarantees this); it exists so
// a future encoding bug surfaces as a loud panic instead of a silent OOB
// read, matching spec.md §7's "host invariant violation" category.
func mustGPR(n uint8) uint8 {
	if n > 31 {
		panic(fmt.Sprintf("emit: register number %d out of range", n))
	}
	return n
}
