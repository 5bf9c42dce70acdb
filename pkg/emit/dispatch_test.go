package emit

import (
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/irtext"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func TestDecodeAndEmitADDI(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.PC = 0x1000
	// addi x1, x0, 5
	raw := uint32(5<<20 | 0<<15 | 0<<12 | 1<<7 | 0x13)
	if err := DecodeAndEmit(b, ctx, raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "wr_gpr x1") {
		t.Fatalf("expected a write to x1, got:\n%s", b.String())
	}
}

func TestDecodeAndEmitVectorCfgShortCircuit(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	if err := DecodeAndEmit(b, ctx, vsetvliWord(1, 2, 0x10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if ctx.State != ir.StateStop {
		t.Fatalf("expected state STOP, got %v", ctx.State)
	}
	if !strings.Contains(b.String(), "call helper_vsetvl") {
		t.Fatalf("expected dispatch to route to the vector-config path, got:\n%s", b.String())
	}
}

func TestDecodeAndEmitIllegalRaises(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.PC = 0x2000
	if err := DecodeAndEmit(b, ctx, 0x00000000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if ctx.State != ir.StateBranch {
		t.Fatalf("expected state BRANCH on illegal, got %v", ctx.State)
	}
	if !strings.Contains(b.String(), "raise illegal") {
		t.Fatalf("expected an illegal-instruction raise, got:\n%s", b.String())
	}
}

func TestEmitInstructionLUIAndAUIPC(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	ctx.PC = 0x4000
	EmitInstruction(b, ctx, rvenc.Instruction{Op: rvenc.LUI, Rd: 1, Imm: 0x1000})
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "wr_gpr x1") {
		t.Fatalf("expected LUI to write x1, got:\n%s", b.String())
	}

	b2 := irtext.New()
	ctx2 := newCtx(64)
	ctx2.PC = 0x4000
	EmitInstruction(b2, ctx2, rvenc.Instruction{Op: rvenc.AUIPC, Rd: 2, Imm: 0x1000})
	if b2.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b2.LiveTemps())
	}
	if !strings.Contains(b2.String(), "wr_gpr x2") {
		t.Fatalf("expected AUIPC to write x2, got:\n%s", b2.String())
	}
}
