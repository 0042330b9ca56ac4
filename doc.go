// Package oxcc converts TypeScript and JavaScript source files into plain
// JavaScript. It is the engine behind the liboxcc C library and the oxcc
// command.
//
// # Pipeline
//
// Every call to [Transpiler.Transpile] runs the same stages in order:
//
//  1. Reset the Transpiler's arena, releasing everything the previous call
//     allocated while keeping the reserved memory.
//  2. Classify the path by its extension into a [SourceType].
//  3. Load the file into the arena and check that it is valid UTF-8.
//  4. Parse it with tree-sitter into an arena-backed syntax tree.
//  5. Build scopes, symbols and references over the tree.
//  6. Transform the tree: erase type-only syntax, lower enums, namespaces
//     and parameter properties, and rewrite import specifiers.
//  7. Generate the JavaScript text.
//
// The first stage that reports a problem ends the call with an [*Error]
// whose [Kind] names that stage.
//
// # Usage
//
//	t := oxcc.New(oxcc.WithConfig(cfg))
//	defer t.Close()
//
//	out, err := t.Transpile(ctx, "src/index.ts")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(out.Code)
//
// A Transpiler handles one file at a time. Use one per goroutine, or
// [TranspileAll] to spread a list of files over a pool of workers.
//
// # Configuration
//
// [Config] is fixed when the Transpiler is created. [LoadConfig] reads it
// from a TOML file with [transform] and [codegen] tables.
package oxcc
