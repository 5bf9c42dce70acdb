package tb

import "github.com/oisee/rvtrans/pkg/ir"

// pageSize is the page boundary pkg/tb treats as a target constant, per
// spec.md §9 "treat the page mask as a target constant, not a runtime
// parameter."
const pageSize = 4096

func page(pc uint64) uint64 {
	return pc &^ uint64(pageSize-1)
}

func samePage(a, b uint64) bool {
	return page(a) == page(b)
}

// ChainOrExit implements the goto_tb chaining policy of spec.md §4.4:
// chain slot's direct jump only when single-step is off and dest lies in
// the same page as the TB's start PC; otherwise write dest to the guest
// pc slot and exit uncahined.
func ChainOrExit(b ir.Builder, startPC uint64, singleStep bool, slot int, dest uint64) {
	if !singleStep && samePage(startPC, dest) {
		b.GotoTB(slot, dest)
		return
	}
	pcT := b.MovI(int64(dest))
	b.ExitTB(&pcT)
	b.FreeTemp(pcT)
}
