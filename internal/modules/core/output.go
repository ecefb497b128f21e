package core

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

// maxDumpDepth stops dumping structures nested deeper than any real data.
const maxDumpDepth = value.MaxNestingDepth

// nesting tracks the containers currently being printed, so that an array
// holding a reference to itself prints *RECURSION* instead of looping.
type nesting []value.Array

// enter reports whether arr can be descended into and returns the stack
// including it.
func (n nesting) enter(arr value.Array) (nesting, bool) {
	if slices.Contains(n, arr) || len(n) >= maxDumpDepth {
		return n, false
	}
	return append(n, arr), true
}

func registerOutput(r *evaluator.Registry) {
	r.RegisterFunc("var_dump", 1, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		for _, v := range args {
			varDump(&sb, v, 0, nil)
		}
		_, err := io.WriteString(ctx.Out, sb.String())
		return value.Null{}, err
	})
	r.RegisterFunc("print_r", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		printR(&sb, args[0], 0, ctx.Precision(), nil)
		if optBool(args, 1) {
			return value.Str(sb.String()), nil
		}
		_, err := io.WriteString(ctx.Out, sb.String())
		return value.Bool(true), err
	})
	r.RegisterFunc("var_export", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		varExport(&sb, args[0], 0, nil)
		if optBool(args, 1) {
			return value.Str(sb.String()), nil
		}
		_, err := io.WriteString(ctx.Out, sb.String())
		return value.Null{}, err
	})
	r.RegisterFunc("sprintf", 1, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s, err := formatArgs(ctx, value.ToString(args[0]), args[1:])
		if err != nil {
			return nil, err
		}
		return value.Str(s), nil
	})
	r.RegisterFunc("printf", 1, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s, err := formatArgs(ctx, value.ToString(args[0]), args[1:])
		if err != nil {
			return nil, err
		}
		n, err := io.WriteString(ctx.Out, s)
		return value.Int(n), err
	})
	r.RegisterFunc("vsprintf", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		list, err := arrayArg(ctx, args, 1, "values")
		if err != nil {
			return nil, err
		}
		s, err := formatArgs(ctx, value.ToString(args[0]), valuesOf(list))
		if err != nil {
			return nil, err
		}
		return value.Str(s), nil
	})
}

func varDump(sb *strings.Builder, v value.Value, indent int, open nesting) {
	pad := strings.Repeat(" ", indent)
	sb.WriteString(pad)
	switch x := value.OrNull(v).(type) {
	case value.Null:
		sb.WriteString("NULL\n")
	case value.Bool:
		fmt.Fprintf(sb, "bool(%t)\n", bool(x))
	case value.Int:
		fmt.Fprintf(sb, "int(%d)\n", int64(x))
	case value.Float:
		fmt.Fprintf(sb, "float(%s)\n", value.FormatFloat(float64(x), -1))
	case value.String:
		fmt.Fprintf(sb, "string(%d) \"%s\"\n", len(x.Value), x.Value)
	case *value.Resource:
		fmt.Fprintf(sb, "resource(%d) of type (%s)\n", x.ID, x.Type)
	case *value.Object:
		inner, ok := open.enter(x.Props)
		if !ok {
			sb.WriteString("*RECURSION*\n")
			return
		}
		fmt.Fprintf(sb, "object(%s)#%d (%d) {\n", x.Class, x.ID(), x.Props.Size())
		dumpEntries(sb, x.Props, indent, inner)
		sb.WriteString(pad + "}\n")
	case value.Array:
		inner, ok := open.enter(x)
		if !ok {
			sb.WriteString("*RECURSION*\n")
			return
		}
		fmt.Fprintf(sb, "array(%d) {\n", x.Size())
		dumpEntries(sb, x, indent, inner)
		sb.WriteString(pad + "}\n")
	}
}

func dumpEntries(sb *strings.Builder, arr value.Array, indent int, open nesting) {
	pad := strings.Repeat(" ", indent+2)
	for k, v := range arr.Iter() {
		if k.IsInt() {
			fmt.Fprintf(sb, "%s[%d]=>\n", pad, k.Int())
		} else {
			fmt.Fprintf(sb, "%s[\"%s\"]=>\n", pad, k.String())
		}
		varDump(sb, v, indent+2, open)
	}
}

func printR(sb *strings.Builder, v value.Value, indent, precision int, open nesting) {
	var arr value.Array
	label := "Array"
	switch x := value.OrNull(v).(type) {
	case *value.Object:
		arr, label = x.Props, x.Class+" Object"
	case value.Array:
		arr = x
	case value.Float:
		sb.WriteString(value.FormatFloat(float64(x), precision))
		return
	default:
		sb.WriteString(value.ToString(x))
		return
	}

	inner, ok := open.enter(arr)
	if !ok {
		sb.WriteString(label + "\n *RECURSION*")
		return
	}
	pad := strings.Repeat(" ", indent)
	sb.WriteString(label + "\n" + pad + "(\n")
	for k, item := range arr.Iter() {
		fmt.Fprintf(sb, "%s    [%s] => ", pad, k.String())
		printR(sb, item, indent+8, precision, inner)
		sb.WriteString("\n")
	}
	sb.WriteString(pad + ")\n")
}

// varExport prints NULL for a structure that contains itself, as it
// cannot be written back as a literal.
func varExport(sb *strings.Builder, v value.Value, indent int, open nesting) {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		sb.WriteString("NULL")
	case value.Bool:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case value.Int:
		sb.WriteString(strconv.FormatInt(int64(x), 10))
	case value.Float:
		s := value.FormatFloat(float64(x), -1)
		if !strings.ContainsAny(s, ".EN") {
			s += ".0"
		}
		sb.WriteString(s)
	case value.String:
		sb.WriteString(exportString(x.Value))
	case *value.Resource:
		sb.WriteString("NULL")
	case *value.Object:
		inner, ok := open.enter(x.Props)
		if !ok {
			sb.WriteString("NULL")
			return
		}
		fmt.Fprintf(sb, "\\%s::__set_state(", x.Class)
		exportArray(sb, x.Props, indent, inner)
		sb.WriteString(")")
	case value.Array:
		inner, ok := open.enter(x)
		if !ok {
			sb.WriteString("NULL")
			return
		}
		exportArray(sb, x, indent, inner)
	}
}

func exportArray(sb *strings.Builder, arr value.Array, indent int, open nesting) {
	pad := strings.Repeat(" ", indent)
	sb.WriteString("array (\n")
	for k, item := range arr.Iter() {
		sb.WriteString(pad + "  ")
		if k.IsInt() {
			sb.WriteString(strconv.FormatInt(k.Int(), 10))
		} else {
			sb.WriteString(exportString(k.String()))
		}
		sb.WriteString(" => ")
		if _, nested := value.AsArray(item); nested {
			sb.WriteString("\n" + pad + "  ")
		}
		varExport(sb, item, indent+2, open)
		sb.WriteString(",\n")
	}
	sb.WriteString(pad + ")")
}

func valuesOf(arr value.Array) []value.Value {
	out := make([]value.Value, 0, arr.Size())
	for v := range arr.ValueIter() {
		out = append(out, v)
	}
	return out
}

func exportString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
