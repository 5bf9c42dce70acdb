package emit

import (
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/ir"
	"github.com/oisee/rvtrans/pkg/irtext"
)

func vsetvliWord(rd, rs1 uint8, zimm11 uint32) uint32 {
	return (zimm11&0x7ff)<<20 | uint32(rs1)<<15 | 0x7<<12 | uint32(rd)<<7 | 0x57
}

func vsetivliWord(rd, uimm5 uint8, zimm10 uint32) uint32 {
	return 0x3<<30 | (zimm10&0x3ff)<<20 | uint32(uimm5)<<15 | 0x7<<12 | uint32(rd)<<7 | 0x57
}

func vsetvlWord(rd, rs1, rs2 uint8) uint32 {
	return 0x40<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | 0x7<<12 | uint32(rd)<<7 | 0x57
}

func TestIsVectorCfg(t *testing.T) {
	if !IsVectorCfg(vsetvliWord(1, 2, 0)) {
		t.Fatalf("expected vsetvli encoding to be recognized")
	}
	if IsVectorCfg(0x00000013) { // NOP (ADDI x0,x0,0)
		t.Fatalf("ADDI must not be mistaken for a vector-config instruction")
	}
}

func TestEmitVectorCfgVsetvli(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	EmitVectorCfg(b, ctx, vsetvliWord(1, 2, 0x10))
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if ctx.State != ir.StateStop {
		t.Fatalf("expected state STOP, got %v", ctx.State)
	}
	out := b.String()
	if !strings.Contains(out, "call helper_vsetvl") {
		t.Fatalf("expected a helper_vsetvl call, got:\n%s", out)
	}
	if !strings.Contains(out, "wr_gpr x1") {
		t.Fatalf("expected vl written to rd, got:\n%s", out)
	}
}

func TestEmitVectorCfgVsetivli(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	EmitVectorCfg(b, ctx, vsetivliWord(1, 4, 0x10))
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "call helper_vsetvl") {
		t.Fatalf("expected a helper_vsetvl call, got:\n%s", b.String())
	}
}

func TestEmitVectorCfgVsetvlFromRegister(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	EmitVectorCfg(b, ctx, vsetvlWord(1, 2, 3))
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "call helper_vsetvl") {
		t.Fatalf("expected a helper_vsetvl call, got:\n%s", b.String())
	}
}
