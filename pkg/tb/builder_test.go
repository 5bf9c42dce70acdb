package tb

import (
	"strings"
	"testing"

	"github.com/oisee/rvtrans/pkg/irtext"
)

func rtype(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func itype(imm uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return imm<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func bImmBits(imm int32) uint32 {
	u := uint32(imm)
	return ((u>>12)&1)<<31 | ((u>>5)&0x3f)<<25 | ((u>>1)&0xf)<<8 | ((u>>11)&1)<<7
}

func beqWord(rs1, rs2 uint32, imm int32) uint32 {
	return bImmBits(imm) | rs2<<20 | rs1<<15 | 0x63
}

// fixedFetch returns word on the first call and fails the test on any
// later call: every test using it expects its block to end after that
// one instruction.
func fixedFetch(t *testing.T, word uint32) Fetch {
	called := false
	return func(pc uint64) (uint32, error) {
		if called {
			t.Fatalf("fetch invoked more than once for pc=%#x", pc)
		}
		called = true
		return word, nil
	}
}

func TestBuildADDI(t *testing.T) {
	// spec.md §8 scenario 1: ADDI x1, x0, 5 (0x00500093).
	b := irtext.New()
	cfg := Config{MaxInsns: 1, XLen: 64}
	blk, _, err := Build(b, 0x1000, cfg, fixedFetch(t, itype(5, 0, 0, 1, 0x13)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 1 || blk.Size != 4 {
		t.Fatalf("expected icount=1 size=4, got icount=%d size=%d", blk.ICount, blk.Size)
	}
	out := b.String()
	if !strings.Contains(out, "wr_gpr x1") {
		t.Fatalf("expected a write to x1, got:\n%s", out)
	}
}

func TestBuildSLLIIllegalShamt(t *testing.T) {
	// spec.md §8 scenario 2: SLLI x2, x1, 64 on RV64 (0x04009113).
	b := irtext.New()
	cfg := Config{MaxInsns: 4, XLen: 64}
	blk, _, err := Build(b, 0x1000, cfg, fixedFetch(t, 0x04009113))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 1 {
		t.Fatalf("expected exactly one decoded instruction, got %d", blk.ICount)
	}
	out := b.String()
	if !strings.Contains(out, "raise illegal") {
		t.Fatalf("expected an illegal-instruction raise, got:\n%s", out)
	}
	if strings.Contains(out, "wr_gpr x2") {
		t.Fatalf("x2 must not be written, got:\n%s", out)
	}
}

func TestBuildDivByZero(t *testing.T) {
	// spec.md §8 scenario 3: DIV x3, x4, x0.
	b := irtext.New()
	cfg := Config{MaxInsns: 1, XLen: 64}
	word := rtype(0x01, 0, 4, 0x4, 3, 0x33)
	blk, _, err := Build(b, 0x1000, cfg, fixedFetch(t, word))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 1 {
		t.Fatalf("expected one instruction, got %d", blk.ICount)
	}
	if strings.Contains(b.String(), "raise") {
		t.Fatalf("DIV by zero must not raise, got:\n%s", b.String())
	}
}

func TestBuildRemOverflow(t *testing.T) {
	// spec.md §8 scenario 4: REM x3, x4, x5.
	b := irtext.New()
	cfg := Config{MaxInsns: 1, XLen: 64}
	word := rtype(0x01, 5, 4, 0x6, 3, 0x33)
	_, _, err := Build(b, 0x1000, cfg, fixedFetch(t, word))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
}

func TestBuildBranchMisaligned(t *testing.T) {
	// spec.md §8 scenario 5: BEQ x1, x1, +8 on RV32, RVC off, pc=0x1002.
	b := irtext.New()
	cfg := Config{MaxInsns: 4, XLen: 32, RVC: false}
	word := beqWord(1, 1, 8)
	blk, _, err := Build(b, 0x1002, cfg, fixedFetch(t, word))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 1 {
		t.Fatalf("expected exactly one decoded instruction, got %d", blk.ICount)
	}
	out := b.String()
	if !strings.Contains(out, "raise misaligned") || !strings.Contains(out, "addr=0x100a") {
		t.Fatalf("expected a misaligned raise with bad address 0x100a, got:\n%s", out)
	}
}

func TestBuildVsetvli(t *testing.T) {
	// spec.md §8 scenario 6: vsetvli x5, x0, e32,m1,ta,ma.
	b := irtext.New()
	cfg := Config{MaxInsns: 4, XLen: 64}
	zimm11 := uint32(0xd0) // e32 (vsew field 2), m1, ta, ma; helper_vsetvl owns its interpretation
	word := (zimm11&0x7ff)<<20 | 0<<15 | 0x7<<12 | 5<<7 | 0x57
	blk, _, err := Build(b, 0x1000, cfg, fixedFetch(t, word))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 1 {
		t.Fatalf("expected exactly one decoded instruction, got %d", blk.ICount)
	}
	if !strings.Contains(b.String(), "call helper_vsetvl") {
		t.Fatalf("expected dispatch to route through the vector-config path, got:\n%s", b.String())
	}
}

func TestBuildBreakpointHit(t *testing.T) {
	b := irtext.New()
	cfg := Config{MaxInsns: 4, XLen: 64, Breakpoints: map[uint64]bool{0x2000: true}}
	called := false
	fetch := func(pc uint64) (uint32, error) {
		called = true
		return 0, nil
	}
	blk, _, err := Build(b, 0x2000, cfg, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("fetch must not be invoked once a breakpoint is hit")
	}
	if blk.ICount != 0 {
		t.Fatalf("a breakpoint hit must not decode any instruction, got icount=%d", blk.ICount)
	}
	out := b.String()
	if !strings.Contains(out, "raise debug") {
		t.Fatalf("expected a debug-exception raise, got:\n%s", out)
	}
}

func TestBuildMaxInsnsStopsAndChains(t *testing.T) {
	b := irtext.New()
	cfg := Config{MaxInsns: 2, XLen: 64}
	calls := 0
	fetch := func(pc uint64) (uint32, error) {
		calls++
		return itype(1, 0, 0, 1, 0x13), nil // addi x1, x0, 1
	}
	blk, _, err := Build(b, 0x1000, cfg, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.LiveTemps() != 0 {
		t.Fatalf("temp leak: %d live", b.LiveTemps())
	}
	if blk.ICount != 2 || calls != 2 {
		t.Fatalf("expected exactly 2 decoded instructions, got icount=%d calls=%d", blk.ICount, calls)
	}
	if !strings.Contains(b.String(), "goto_tb 0") {
		t.Fatalf("expected the max-insns stop to chain back via goto_tb, got:\n%s", b.String())
	}
}

func TestBuildSearchPCRecordsPositions(t *testing.T) {
	b := irtext.New()
	cfg := Config{MaxInsns: 2, XLen: 64, SearchPC: true}
	calls := 0
	fetch := func(pc uint64) (uint32, error) {
		calls++
		return itype(1, 0, 0, 1, 0x13), nil
	}
	_, pos, err := Build(b, 0x1000, cfg, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pos.Entries) != 2 {
		t.Fatalf("expected 2 recorded positions, got %d", len(pos.Entries))
	}
	if pc, ok := pos.PCAt(pos.Entries[0].OpPos); !ok || pc != 0x1000 {
		t.Fatalf("expected the first recorded position to map to pc=0x1000, got pc=%#x ok=%v", pc, ok)
	}
}

func TestBuildSearchPCRepassStopsAtOriginalSize(t *testing.T) {
	// First, an ordinary pass over 3 ADDI instructions (4 bytes each).
	b1 := irtext.New()
	calls := 0
	fetch := func(pc uint64) (uint32, error) {
		calls++
		return itype(1, 0, 0, 1, 0x13), nil
	}
	original, _, err := Build(b1, 0x1000, Config{MaxInsns: 3, XLen: 64}, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if original.Size != 12 {
		t.Fatalf("expected the original pass to cover 12 bytes, got %d", original.Size)
	}

	// A search-PC re-pass given that same original size must stop exactly
	// when it has re-covered the same ground, without any MaxInsns cap.
	b2 := irtext.New()
	calls = 0
	blk, pos, err := Build(b2, 0x1000, Config{XLen: 64, SearchPC: true, OriginalSize: original.Size}, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blk.ICount != 3 || calls != 3 {
		t.Fatalf("expected the re-pass to stop after 3 instructions, got icount=%d calls=%d", blk.ICount, calls)
	}
	if len(pos.Entries) != 3 {
		t.Fatalf("expected 3 recorded positions, got %d", len(pos.Entries))
	}
}
