package vif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Trace writes the human-readable listing of insts to w.
func Trace(w io.Writer, insts []Instruction) error {
	bw := bufio.NewWriter(w)
	for _, in := range insts {
		traceInstruction(bw, in)
	}
	return bw.Flush()
}

func traceInstruction(w *bufio.Writer, in Instruction) {
	if in.Unhandled {
		fmt.Fprintf(w, ">> Unhandled VIF command '%s'\n", in.Name)
	}
	fmt.Fprintf(w, "  %-16s : %-16s : %s\n", in.Name, strings.Join(in.Props(), " "), in.Info)

	if in.Mask != nil {
		fmt.Fprintf(w, "-> %-16s%-16s%-16s%-16s\n", "MASK_X", "MASK_Y", "MASK_Z", "MASK_W")
		for row, cols := range in.Mask {
			w.WriteString("-> ")
			for _, m := range cols {
				fmt.Fprintf(w, "%-16s", m)
			}
			fmt.Fprintf(w, "; V%d\n", row+1)
		}
	}

	if in.Unpack == nil {
		return
	}
	for _, g := range in.Unpack.Groups {
		fmt.Fprintf(w, "-> [%04d]: ", g.Start+1)
		for _, e := range g.Elements {
			traceElement(w, e)
		}
		w.WriteByte('\n')
	}
}

func traceElement(w *bufio.Writer, e Element) {
	switch {
	case e.Color != nil:
		fmt.Fprintf(w, "r:%-6dg:%-6db:%-6da:%-6d", e.Color.R, e.Color.G, e.Color.B, e.Color.A)
	case e.Scaled != nil:
		for _, v := range e.Scaled {
			if v < 0 {
				fmt.Fprintf(w, "%-8.4f", v)
			} else {
				fmt.Fprintf(w, " %-7.4f", v)
			}
		}
	default:
		for _, v := range e.Raw {
			if v < 0 {
				fmt.Fprintf(w, "%-8d", v)
			} else {
				fmt.Fprintf(w, " %-7d", v)
			}
		}
	}
}
