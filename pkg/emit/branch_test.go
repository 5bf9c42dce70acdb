package emit

import (
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/irtext"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func TestEmitBranchTaken(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(32)
	ctx.PC = 0x2000
	instr := rvenc.Instruction{Op: rvenc.BEQ, Rs1: 1, Rs2: 2, Imm: 8}
	EmitBranch(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if ctx.State != ir.StateBranch {
		t.Fatalf("expected state BRANCH, got %v", ctx.State)
	}
	out := b.String()
	if !strings.Contains(out, "goto_tb 0") || !strings.Contains(out, "goto_tb 1") {
		t.Fatalf("expected both chaining slots, got:\n%s", out)
	}
}

func TestEmitBranchMisalignedTarget(t *testing.T) {
	// spec.md §8 scenario 5: BEQ x1,x1,+8 on RV32, RVC disabled, pc=0x1002.
	b := irtext.New()
	ctx := newCtx(32)
	ctx.PC = 0x1002
	ctx.RVC = false
	instr := rvenc.Instruction{Op: rvenc.BEQ, Rs1: 1, Rs2: 1, Imm: 8}
	EmitBranch(b, ctx, instr)
	out := b.String()
	if !strings.Contains(out, "raise misaligned") || !strings.Contains(out, "addr=0x100a") {
		t.Fatalf("expected misaligned raise with bad address 0x100a, got:\n%s", out)
	}
}

func TestEmitJALLinksAndChains(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.PC = 0x1000
	instr := rvenc.Instruction{Op: rvenc.JAL, Rd: 1, Imm: 0x100}
	EmitJAL(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	out := b.String()
	if !strings.Contains(out, "wr_gpr x1") {
		t.Fatalf("expected link write to x1, got:\n%s", out)
	}
	if !strings.Contains(out, "goto_tb 0, 0x1100") {
		t.Fatalf("expected chained jump to 0x1100, got:\n%s", out)
	}
}

func TestEmitJALRDoesNotChain(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.RVC = true // skip the misalignment branch for this shape test
	instr := rvenc.Instruction{Op: rvenc.JALR, Rd: 1, Rs1: 2, Imm: 4}
	EmitJALR(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	out := b.String()
	if strings.Contains(out, "goto_tb") {
		t.Fatalf("JALR must never chain, got:\n%s", out)
	}
	if !strings.Contains(out, "exit_tb") {
		t.Fatalf("expected an uncained exit_tb, got:\n%s", out)
	}
}

func TestEmitJALRZeroRdElidesLink(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.RVC = true
	instr := rvenc.Instruction{Op: rvenc.JALR, Rd: 0, Rs1: 2, Imm: 0}
	EmitJALR(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
}
