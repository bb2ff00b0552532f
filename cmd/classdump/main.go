// Classdump CLI - decodes class files and prints their structure, bytecode,
// control flow and synthesized stack-map frames.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/x4e/classfile/classfile"
	"github.com/x4e/classfile/classpath"
	"github.com/x4e/classfile/digest"
	"github.com/x4e/classfile/flow"
	"github.com/x4e/classfile/hierarchy"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("classdump")

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	showPool := flag.Bool("pool", false, "Print the constant pool")
	showCode := flag.Bool("c", false, "Disassemble method bodies")
	showCFG := flag.Bool("cfg", false, "Print basic blocks and edges")
	showFrames := flag.Bool("frames", false, "Synthesize and print stack-map frames")
	showDigest := flag.Bool("digest", false, "Print the class content digest")
	pruneDead := flag.Bool("prune-unreachable", false, "Drop unreachable blocks from the CFG")
	hierarchyFile := flag.String("hierarchy", "", "TOML class-hierarchy table for frame synthesis")
	cp := flag.String("cp", "", "Classpath of directories/JARs to resolve hierarchies from (path-list separated)")
	indexPath := flag.String("index", "", "Persist the classpath index database at this path")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: classdump [options] <file.class>...\n\n")
		fmt.Fprintf(os.Stderr, "Decodes JVM class files and prints their structure.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  classdump Main.class                  # Header, fields, methods\n")
		fmt.Fprintf(os.Stderr, "  classdump -c -frames Main.class       # Bytecode + stack-map frames\n")
		fmt.Fprintf(os.Stderr, "  classdump -cp lib/app.jar -frames Main.class\n")
		fmt.Fprintf(os.Stderr, "  classdump -hierarchy types.toml -cfg Main.class\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	h, err := buildHierarchy(*hierarchyFile, *cp, *indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "classdump: %v\n", err)
		os.Exit(1)
	}

	opts := dumpOptions{
		pool:   *showPool,
		code:   *showCode,
		cfg:    *showCFG,
		frames: *showFrames,
		digest: *showDigest,
		prune:  *pruneDead,
		h:      h,
	}
	failed := false
	for _, path := range flag.Args() {
		if err := dumpFile(os.Stdout, path, opts); err != nil {
			fmt.Fprintf(os.Stderr, "classdump: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// buildHierarchy picks the hierarchy oracle: an indexed classpath when one
// is given, otherwise a TOML table, otherwise the built-in core table.
func buildHierarchy(hierarchyFile, cp, indexPath string) (flow.Hierarchy, error) {
	if cp != "" {
		var ix *classpath.Index
		var err error
		if indexPath != "" {
			ix, err = classpath.Open(indexPath)
		} else {
			ix, err = classpath.OpenMemory()
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range strings.Split(cp, string(os.PathListSeparator)) {
			if entry == "" {
				continue
			}
			info, err := os.Stat(entry)
			if err != nil {
				return nil, err
			}
			var n int
			if info.IsDir() {
				n, err = ix.AddDir(entry)
			} else {
				n, err = ix.AddJar(entry)
			}
			if err != nil {
				return nil, err
			}
			log.Infof("indexed %d classes from %s", n, entry)
		}
		return ix, nil
	}
	if hierarchyFile != "" {
		return hierarchy.Load(hierarchyFile)
	}
	return hierarchy.Base(), nil
}

type dumpOptions struct {
	pool   bool
	code   bool
	cfg    bool
	frames bool
	digest bool
	prune  bool
	h      flow.Hierarchy
}

func dumpFile(w *os.File, path string, opts dumpOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "class %s\n", cf.Name)
	fmt.Fprintf(w, "  version: %s (Java %d)\n", cf.Version, cf.Version.JavaRelease())
	fmt.Fprintf(w, "  flags: %s\n", cf.Access)
	if cf.SuperName != "" {
		fmt.Fprintf(w, "  super: %s\n", cf.SuperName)
	}
	for _, i := range cf.Interfaces {
		fmt.Fprintf(w, "  implements: %s\n", i)
	}
	if src := cf.SourceFile(); src != "" {
		fmt.Fprintf(w, "  source: %s\n", src)
	}

	if opts.digest {
		d, err := digest.Of(data, cf)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  raw sha256: %s\n", hex.EncodeToString(d.Raw[:]))
		fmt.Fprintf(w, "  structural: %s\n", hex.EncodeToString(d.Hash[:]))
	}

	if opts.pool {
		fmt.Fprintf(w, "\nconstant pool (%d slots):\n", cf.Pool.Size())
		cf.Pool.Entries(func(index uint16, c classfile.Constant) {
			fmt.Fprintf(w, "  #%-4d %s\n", index, c)
		})
	}

	for _, f := range cf.Fields {
		fmt.Fprintf(w, "\nfield %s\n", f)
		if cv := f.ConstantValue(); cv != nil {
			fmt.Fprintf(w, "  value: %s\n", cv)
		}
	}

	for _, m := range cf.Methods {
		fmt.Fprintf(w, "\nmethod %s\n", m)
		if ex := m.Exceptions(); len(ex) > 0 {
			fmt.Fprintf(w, "  throws: %s\n", strings.Join(ex, ", "))
		}
		if m.Code == nil {
			continue
		}
		if err := dumpCode(w, cf, m, opts); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	return nil
}

func dumpCode(w *os.File, cf *classfile.ClassFile, m *classfile.Method, opts dumpOptions) error {
	code := m.Code
	fmt.Fprintf(w, "  max_stack=%d max_locals=%d\n", code.MaxStack, code.MaxLocals)

	if opts.code {
		for _, e := range code.Entries {
			fmt.Fprintf(w, "    %4s: %s\n", e.Label, e.Insn)
		}
		for _, h := range code.Handlers {
			fmt.Fprintf(w, "    %s\n", h)
		}
	}

	if !opts.cfg && !opts.frames {
		return nil
	}
	g, err := flow.BuildGraph(code, flow.Options{PruneUnreachable: opts.prune})
	if err != nil {
		return err
	}

	if opts.cfg {
		fmt.Fprintf(w, "  blocks:\n")
		for _, b := range g.Blocks {
			var succs []string
			for _, e := range b.Succs {
				if e.Handler >= 0 {
					succs = append(succs, fmt.Sprintf("B%d(catch)", e.To))
				} else {
					succs = append(succs, fmt.Sprintf("B%d", e.To))
				}
			}
			mark := ""
			if !b.Reachable {
				mark = " unreachable"
			}
			fmt.Fprintf(w, "    B%d %s..%s -> [%s]%s\n",
				b.Index, code.Entries[b.Start].Label, code.Entries[b.End-1].Label,
				strings.Join(succs, " "), mark)
		}
	}

	if opts.frames {
		a, err := flow.Synthesize(g, cf.Name, m, opts.h)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  stack map frames:\n")
		for _, fr := range a.Frames {
			fmt.Fprintf(w, "    %4s: %s locals=%v stack=%v\n", fr.Label, fr.Kind, fr.Locals, fr.Stack)
		}
	}
	return nil
}
