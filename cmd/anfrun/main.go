package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/hmny-dyro/anfvm/pkg/ast"
	"github.com/hmny-dyro/anfvm/pkg/eval"
	"github.com/hmny-dyro/anfvm/pkg/langutil"
	"github.com/hmny-dyro/anfvm/pkg/lower"

	"github.com/teris-io/cli"
)

//go:embed testdata/programs/addition.json
var additionProgram string

//go:embed testdata/programs/factorial.json
var factorialProgram string

//go:embed testdata/programs/heap.json
var heapProgram string

// embeddedPrograms is the catalogue of sample programs bundled into the
// binary, following pkg/jack/stdlib.go's go:embed + encoding/json pattern
// for shipping fixed data alongside the compiled tool. It's an OrderedMap
// rather than a plain map so --list enumerates samples in a fixed order
// instead of Go's randomized map iteration.
var embeddedPrograms = langutil.NewOrderedMapFromList([]langutil.MapEntry[string, string]{
	{Key: "addition", Value: additionProgram},
	{Key: "factorial", Value: factorialProgram},
	{Key: "heap", Value: heapProgram},
})

var Description = strings.ReplaceAll(`
anfrun loads a program already expressed as ANF-lowerable JSON AST, lowers it
to A-Normal Form, and evaluates it with a tree-walking interpreter. Pass a
path to a JSON file, or use --embedded to run one of the bundled samples.
`, "\n", " ")

var AnfRun = cli.New(Description).
	WithArg(cli.NewArg("input", "Path to a JSON-encoded AST program").AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("embedded", "Run a bundled sample program by name (addition, factorial, heap)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("trace", "Print the lowered ANF term before evaluating").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("list", "List the bundled sample programs and exit").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if _, listed := options["list"]; listed {
		for _, name := range embeddedPrograms.Keys() {
			fmt.Printf("%s\n", name)
		}
		return 0
	}

	var source string

	if name, ok := options["embedded"]; ok {
		program, found := embeddedPrograms.Get(name)
		if !found {
			fmt.Printf("ERROR: No embedded program named %q, use --help\n", name)
			return -1
		}
		source = program
	} else {
		if len(args) < 1 {
			fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
			return -1
		}
		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}
		source = string(content)
	}

	tree, err := ast.FromJSON([]byte(source))
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	term, err := lower.Lower(tree)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	if _, traced := options["trace"]; traced {
		fmt.Printf("--- lowered ANF term ---\n%#v\n", term)
	}

	result, err := eval.NewEvaluator(os.Stdout).Evaluate(term)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'evaluation' pass: %s\n", err)
		return -1
	}

	fmt.Printf("=> %s\n", result.String())
	return 0
}

func main() { os.Exit(AnfRun.Run(os.Args, os.Stdout)) }
