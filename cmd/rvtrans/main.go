package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oisee/rvtrans/pkg/irtext"
	"github.com/oisee/rvtrans/pkg/rvdec"
	"github.com/oisee/rvtrans/pkg/rvenc"
	"github.com/oisee/rvtrans/pkg/tb"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rvtrans",
		Short: "RISC-V guest instruction stream decoder and IR translator",
	}

	var xlen int
	var rvc bool
	var verbose bool

	decodeCmd := &cobra.Command{
		Use:   "decode [word]",
		Short: "Decode one instruction word and print its operand tuple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := parseWord(args[0])
			if err != nil {
				return err
			}
			instr, length, err := decodeOne(word, xlen, rvc)
			if err != nil {
				return err
			}
			fmt.Printf("op=%s rd=x%d rs1=x%d rs2=x%d rs3=x%d imm=%d length=%d\n",
				rvenc.Catalog[instr.Op].Mnemonic, instr.Rd, instr.Rs1, instr.Rs2, instr.Rs3, instr.Imm, length)
			return nil
		},
	}
	decodeCmd.Flags().IntVar(&xlen, "xlen", 64, "XLEN: 32 or 64")
	decodeCmd.Flags().BoolVar(&rvc, "rvc", true, "Compressed (C) extension enabled")

	disasmCmd := &cobra.Command{
		Use:   "disasm [word]",
		Short: "Decode one instruction word and print canonical assembly text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := parseWord(args[0])
			if err != nil {
				return err
			}
			instr, _, err := decodeOne(word, xlen, rvc)
			if err != nil {
				return err
			}
			fmt.Println(rvenc.Disassemble(instr))
			return nil
		},
	}
	disasmCmd.Flags().IntVar(&xlen, "xlen", 64, "XLEN: 32 or 64")
	disasmCmd.Flags().BoolVar(&rvc, "rvc", true, "Compressed (C) extension enabled")

	var startPC uint64
	var maxInsns int
	var singleStep bool

	translateCmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Build one translation block from a raw guest code file and print its IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			fetch := func(pc uint64) (uint32, error) {
				off := pc - startPC
				if off+4 > uint64(len(code)) {
					return 0, fmt.Errorf("fetch past end of input at pc=%#x", pc)
				}
				return binary.LittleEndian.Uint32(code[off:]), nil
			}

			b := irtext.New()
			cfg := tb.Config{
				MaxInsns:   maxInsns,
				SingleStep: singleStep,
				XLen:       xlen,
				RVC:        rvc,
			}
			if verbose {
				fmt.Printf("Translating from pc=%#x (xlen=%d rvc=%v max-insns=%d)\n", startPC, xlen, rvc, maxInsns)
			}

			blk, _, err := tb.Build(b, startPC, cfg, fetch)
			if err != nil {
				return fmt.Errorf("translate failed: %w", err)
			}

			fmt.Printf("; block start=%#x size=%d icount=%d\n", blk.StartPC, blk.Size, blk.ICount)
			for _, line := range b.Lines() {
				fmt.Println(line)
			}
			return nil
		},
	}
	translateCmd.Flags().Uint64Var(&startPC, "pc", 0x1000, "Starting guest PC")
	translateCmd.Flags().IntVar(&maxInsns, "max-insns", 512, "Maximum instructions per block (0 = unbounded)")
	translateCmd.Flags().BoolVar(&singleStep, "single-step", false, "Build a single-instruction debug block")
	translateCmd.Flags().IntVar(&xlen, "xlen", 64, "XLEN: 32 or 64")
	translateCmd.Flags().BoolVar(&rvc, "rvc", true, "Compressed (C) extension enabled")
	translateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(decodeCmd, disasmCmd, translateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// decodeOne decodes either a 16-bit or 32-bit word depending on its low
// bits, mirroring pkg/tb.Build's own quadrant check.
func decodeOne(word uint32, xlen int, rvc bool) (rvenc.Instruction, int, error) {
	if word&0x3 == 0x3 {
		instr, err := rvdec.Decode32(word, xlen)
		return instr, 4, err
	}
	if !rvc {
		return rvenc.Instruction{}, 0, fmt.Errorf("16-bit word given but --rvc=false")
	}
	instr, err := rvdec.Decode16(uint16(word), xlen)
	return instr, 2, err
}

// parseWord accepts decimal or 0x-prefixed hex.
func parseWord(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid instruction word %q: %w", s, err)
	}
	return uint32(v), nil
}
