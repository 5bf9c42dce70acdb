package irtext

import (
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/ir"
)

func TestReadGPRZeroIsConstant(t *testing.T) {
	b := New()
	b.ReadGPR(0)
	text := b.String()
	if !strings.Contains(text, "mov 0") {
		t.Fatalf("expected a constant-zero mov, got:\n%s", text)
	}
	if strings.Contains(text, "rd_gpr x0") {
		t.Fatalf("x0 read should not touch physical storage:\n%s", text)
	}
}

func TestWriteGPRZeroIsElided(t *testing.T) {
	b := New()
	v := b.MovI(5)
	b.WriteGPR(0, v)
	if !strings.Contains(b.String(), "elided") {
		t.Fatalf("expected write to x0 to be elided, got:\n%s", b.String())
	}
	if strings.Contains(b.String(), "wr_gpr x0") {
		t.Fatalf("x0 write should never reach wr_gpr")
	}
}

func TestTempBalance(t *testing.T) {
	b := New()
	v := b.MovI(1)
	if b.LiveTemps() != 1 {
		t.Fatalf("expected 1 live temp, got %d", b.LiveTemps())
	}
	b.FreeTemp(v)
	if b.LiveTemps() != 0 {
		t.Fatalf("expected 0 live temps after free, got %d", b.LiveTemps())
	}
}

func TestDoubleFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double free")
		}
	}()
	b := New()
	v := b.MovI(1)
	b.FreeTemp(v)
	b.FreeTemp(v)
}

func TestGotoTBAndExit(t *testing.T) {
	b := New()
	b.GotoTB(0, 0x1000)
	pc := b.MovI(0x2000)
	b.ExitTB(&pc)
	text := b.String()
	if !strings.Contains(text, "goto_tb 0, 0x1000") {
		t.Fatalf("missing goto_tb line:\n%s", text)
	}
	if !strings.Contains(text, "exit_tb t") {
		t.Fatalf("missing exit_tb with pc temp:\n%s", text)
	}
}

func TestHelperCallWithAndWithoutReturn(t *testing.T) {
	b := New()
	a := b.MovI(1)
	b.Helper("sret", []ir.Temp{a}, false)
	r := b.Helper("csr_rw", []ir.Temp{a}, true)
	_ = r
	text := b.String()
	if !strings.Contains(text, "call sret(t0)") {
		t.Fatalf("missing void helper call:\n%s", text)
	}
	if !strings.Contains(text, "= call csr_rw(t0)") {
		t.Fatalf("missing returning helper call:\n%s", text)
	}
}
