package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/hostbridge/bridge"
	"github.com/wippyai/hostbridge/guestmem"
	"github.com/wippyai/hostbridge/handle"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		funcName    = flag.String("func", "", "Export to call (optional)")
		argList     = flag.String("args", "", "Numeric arguments, comma-separated")
		memPages    = flag.Uint("mem", 32, "Guest memory limit in 64 KiB pages")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose bridge logging")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridge-run -wasm <file.wasm> [-func name] [-args 1,2,3]")
		fmt.Fprintln(os.Stderr, "       bridge-run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       bridge-run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			bridge.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, uint32(*memPages)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *argList, uint32(*memPages), *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// demoHost registers a small host API under "env" so freestanding demo
// guests have something to call: a logger taking a pointer-length pair
// and an object store behind handles.
func demoHost(b *bridge.Bridge) error {
	if err := b.Imports().Register("env", "log",
		func(call *bridge.CallContext, stack []uint64) {
			span := guestmem.SpanFrom(stack[0], stack[1])
			s, err := span.String(call.Memory())
			if err != nil {
				fmt.Printf("guest log error: %v\n", err)
				return
			}
			fmt.Printf("guest: %s\n", s)
		},
		bridge.Params(bridge.I32, bridge.I32), bridge.Results()); err != nil {
		return err
	}

	if err := b.Imports().Register("env", "object_new",
		func(call *bridge.CallContext, stack []uint64) {
			h, err := call.Handles().Allocate(struct{}{})
			if err != nil {
				stack[0] = 0
				return
			}
			stack[0] = uint64(h)
		},
		bridge.Params(), bridge.Results(bridge.I32)); err != nil {
		return err
	}

	return b.Imports().Register("env", "object_delete",
		func(call *bridge.CallContext, stack []uint64) {
			_ = call.Handles().Release(handle.Handle(stack[0]))
		},
		bridge.Params(bridge.I32), bridge.Results())
}

func run(wasmFile, funcName, argList string, memPages uint32, listOnly bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	b, err := bridge.New(ctx, bridge.WithMemoryLimitPages(memPages))
	if err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}
	defer b.Close(ctx)

	if err := demoHost(b); err != nil {
		return fmt.Errorf("register host functions: %w", err)
	}

	mod, err := b.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	fmt.Printf("Module: %s\n", wasmFile)
	fmt.Printf("\nExported functions:\n")
	var names []string
	for name := range mod.ExportedFunctions() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := mod.ExportedFunctions()[name]
		fmt.Printf("  %s%s\n", name, signature(def.ParamTypes(), def.ResultTypes()))
	}

	if listOnly {
		return nil
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	if funcName == "" {
		for _, candidate := range []string{"_start", "run", "main"} {
			if _, ok := mod.ExportedFunctions()[candidate]; ok {
				funcName = candidate
				break
			}
		}
		if funcName == "" {
			fmt.Printf("\nNo function specified and no common entry point found.\n")
			fmt.Printf("Use -func to specify an export to call.\n")
			return nil
		}
	}

	args, err := parseArgs(argList)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, argList)
	results, err := inst.Call(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	if len(results) > 0 {
		fmt.Printf("Result: %v\n", results)
	}
	if n := inst.Handles().Len(); n > 0 {
		fmt.Printf("Live handles: %d\n", n)
	}
	return nil
}

func parseArgs(argList string) ([]uint64, error) {
	if argList == "" {
		return nil, nil
	}
	var args []uint64
	for _, field := range strings.Split(argList, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not numeric: %w", field, err)
		}
		args = append(args, v)
	}
	return args, nil
}

func signature(params, results []bridge.ValueType) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(typeName(p))
	}
	sb.WriteByte(')')
	if len(results) > 0 {
		sb.WriteString(" -> ")
		for i, r := range results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(typeName(r))
		}
	}
	return sb.String()
}

func typeName(t bridge.ValueType) string {
	switch t {
	case bridge.I32:
		return "i32"
	case bridge.I64:
		return "i64"
	case bridge.F32:
		return "f32"
	case bridge.F64:
		return "f64"
	}
	return "?"
}
