package tb

import (
	"fmt"

	"github.com/oisee/rvtrans/pkg/emit"
	"github.com/oisee/rvtrans/pkg/ir"
)

// Fetch retrieves the 32-bit word at guest PC (spec.md §6 fetch_u32). It
// may fault on a fetch; the caller's engine converts that into an
// exception, so Build simply propagates the error.
type Fetch func(pc uint64) (uint32, error)

// Config bounds and configures one Build call.
type Config struct {
	MaxInsns    int             // caller cap; 0 means unbounded
	MaxIRSize   int             // host IR buffer cap (ops); 0 means unbounded
	SingleStep  bool
	MMUIdx      int
	XLen        int
	RVC         bool
	SearchPC    bool
	// OriginalSize is the byte size the original (non-search-PC) emission
	// of this same block covered. A search-PC re-pass (SearchPC true) must
	// supply it so Build can recognize the spec's "tb.size ==
	// tb.original_size" re-pass-complete condition; ignored otherwise.
	OriginalSize uint64
	Breakpoints  map[uint64]bool
}

// Build runs the bounded fetch-decode-emit loop of spec.md §4.4 starting
// at startPC, appending IR to b via pkg/emit, and returns the finished
// Block alongside the per-position PC table a search-PC re-pass needs.
// The loop shape (several independent exit checks evaluated every
// iteration, counters updated in place) is grounded on the teacher's
// pkg/search.Run / WorkerPool.RunTasks loops.
func Build(b ir.Builder, startPC uint64, cfg Config, fetch Fetch) (*Block, *PosMap, error) {
	blk := New(startPC, cfg.SearchPC)
	if cfg.SearchPC {
		blk.OriginalSize = cfg.OriginalSize
	}
	pos := NewPosMap()

	ctx := &ir.DecoderContext{
		PC:         startPC,
		MMUIdx:     cfg.MMUIdx,
		SingleStep: cfg.SingleStep,
		RVC:        cfg.RVC,
		XLen:       cfg.XLen,
	}

	for {
		if len(cfg.Breakpoints) > 0 && cfg.Breakpoints[ctx.PC] {
			b.RaiseDebug(ctx.PC)
			nextPC := ctx.PC + 4
			pcT := b.MovI(int64(nextPC))
			b.ExitTB(&pcT)
			b.FreeTemp(pcT)
			ctx.State = ir.StateBranch
			break
		}

		if cfg.SearchPC {
			pos.Record(uint64(b.IRSize()), ctx.PC)
		}

		word, err := fetch(ctx.PC)
		if err != nil {
			return nil, nil, fmt.Errorf("tb: fetch at pc=%#x: %w", ctx.PC, err)
		}

		var instrLen uint64
		if word&0x3 == 0x3 {
			instrLen = 4
		} else if cfg.RVC {
			instrLen = 2
		} else {
			b.RaiseIllegal(ctx.PC)
			blk.ICount++
			ctx.State = ir.StateBranch
			break
		}
		ctx.NextPC = ctx.PC + instrLen

		if err := emit.DecodeAndEmit(b, ctx, word); err != nil {
			return nil, nil, err
		}

		blk.Size += instrLen
		blk.ICount++
		if !cfg.SearchPC {
			blk.OriginalSize = blk.Size
		}

		if n := b.LiveTemps(); n != 0 {
			panic(fmt.Sprintf("tb: temp leak at pc=%#x: %d live temps", ctx.PC, n))
		}

		nextPC := ctx.NextPC
		crossedPage := !samePage(nextPC, blk.StartPC)
		maxReached := cfg.MaxInsns > 0 && blk.ICount >= cfg.MaxInsns
		nearCapacity := cfg.MaxIRSize > 0 && b.IRSize() >= cfg.MaxIRSize
		repassComplete := cfg.SearchPC && blk.Size == blk.OriginalSize

		if maxReached {
			ctx.State = ir.StateStop
		}
		if repassComplete {
			ctx.State = ir.StateStop
		}

		ctx.PC = nextPC

		if ctx.State != ir.StateNone || cfg.SingleStep || crossedPage || nearCapacity || repassComplete {
			break
		}
	}

	finalize(b, ctx, blk, cfg)
	return blk, pos, nil
}

// finalize emits the block's terminator once the loop above has stopped,
// per spec.md §4.4's closing paragraph.
func finalize(b ir.Builder, ctx *ir.DecoderContext, blk *Block, cfg Config) {
	if cfg.SingleStep && ctx.State != ir.StateBranch {
		pcT := b.MovI(int64(ctx.PC))
		b.ExitTB(&pcT)
		b.FreeTemp(pcT)
		b.RaiseDebug(ctx.PC)
		return
	}

	switch ctx.State {
	case ir.StateStop:
		ChainOrExit(b, blk.StartPC, cfg.SingleStep, 0, ctx.PC)
	case ir.StateNone:
		pcT := b.MovI(int64(ctx.PC))
		b.ExitTB(&pcT)
		b.FreeTemp(pcT)
	case ir.StateBranch:
		// The emitter already produced the exit sequence.
	}
}
