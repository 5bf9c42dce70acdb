package emit

import (
	"regexp"
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/irtext"
	"github.com/oisee/rvtrans/pkg/rvenc"
)

func TestEmitFPGuardsMstatusFS(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FADD_S, Rd: 1, Rs1: 2, Rs2: 3}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "read_mstatus") {
		t.Fatalf("expected an mstatus.FS guard, got:\n%s", b.String())
	}
}

func TestEmitFPBinHelperCall(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FADD_S, Rd: 1, Rs1: 2, Rs2: 3}
	EmitFP(b, ctx, instr)
	if !strings.Contains(b.String(), "call fadd_s") {
		t.Fatalf("expected a call to fadd_s, got:\n%s", b.String())
	}
}

func TestEmitFPCompareWritesGPR(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FEQ_S, Rd: 1, Rs1: 2, Rs2: 3}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "wr_gpr x1") {
		t.Fatalf("FEQ.S must write an integer result to the GPR bank, got:\n%s", b.String())
	}
}

func TestEmitFPClassHasNoRoundingModeArg(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FCLASS_S, Rd: 1, Rs1: 2}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !regexp.MustCompile(`call fclass_s\(t\d+\)`).MatchString(b.String()) {
		t.Fatalf("FCLASS.S must pass only its source operand, got:\n%s", b.String())
	}
}

func TestEmitFMA(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FMADD_S, Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "call fmadd_s") {
		t.Fatalf("expected a call to fmadd_s, got:\n%s", b.String())
	}
}

func TestEmitFSgnjVariants(t *testing.T) {
	for _, op := range []rvenc.OpCode{rvenc.FSGNJ_S, rvenc.FSGNJN_S, rvenc.FSGNJX_S, rvenc.FSGNJ_D, rvenc.FSGNJN_D, rvenc.FSGNJX_D} {
		t.Run(rvenc.Catalog[op].Mnemonic, func(t *testing.T) {
			b := irtext.New()
			ctx := newCtx(64)
			instr := rvenc.Instruction{Op: op, Rd: 1, Rs1: 2, Rs2: 3}
			EmitFP(b, ctx, instr)
			if b.LiveTemps() != 0 {
				t.Fatalf("temp leak: %d live", b.LiveTemps())
			}
			// The only call is the mstatus.FS guard's read_mstatus.
			if strings.Count(b.String(), "call ") != 1 || !strings.Contains(b.String(), "call read_mstatus") {
				t.Fatalf("FSGNJ family must be emitted inline, got:\n%s", b.String())
			}
		})
	}
}

func TestEmitFMVXWSignExtends(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FMV_X_W, Rd: 1, Rs1: 2}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "sar") {
		t.Fatalf("FMV.X.W must sign-extend the 32-bit FPR bits via shl/sar, got:\n%s", b.String())
	}
}

func TestEmitFMVWXDirectMove(t *testing.T) {
	b := irtext.New()
	ctx := newCtx(64)
	instr := rvenc.Instruction{Op: rvenc.FMV_W_X, Rd: 1, Rs1: 2}
	EmitFP(b, ctx, instr)
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if !strings.Contains(b.String(), "wr_fpr") {
		t.Fatalf("FMV.W.X must write the FPR bank, got:\n%s", b.String())
	}
}
