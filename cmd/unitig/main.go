// Command unitig runs the minimizer-anchored assembly pipeline end to
// end: ingest reads, clean transitive edges, contract unitigs, build
// consensus, write the graph, in the teacher's CLI idiom (ga.go's
// odin/cli subcommand dispatch).
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/jwaldrip/odin/cli"

	"github.com/mudesheng/unitiggraph/config"
	"github.com/mudesheng/unitiggraph/consensus"
	"github.com/mudesheng/unitiggraph/graphio"
	"github.com/mudesheng/unitiggraph/hashlist"
	"github.com/mudesheng/unitiggraph/reads"
	"github.com/mudesheng/unitiggraph/transitive"
	"github.com/mudesheng/unitiggraph/unitig"
)

var app = cli.New("1.0.0", "Minimizer-anchored unitig graph assembler", func(c cli.Command) {})

func init() {
	build := app.DefineSubCommand("build", "assemble a unitig graph from long reads", Build)
	build.DefineIntFlag("k", 31, "k-mer size (must be odd)")
	build.DefineIntFlag("w", 11, "minimizer window size")
	build.DefineIntFlag("minCoverage", 2, "minimum k-mer coverage to keep a node")
	build.DefineFloat64Flag("minUnitigCoverage", 0, "minimum average unitig coverage to keep after contraction (0 disables the filter)")
	build.DefineBoolFlag("hpc", true, "homopolymer-compress reads before k-merization")
	build.DefineIntFlag("t", 1, "GOMAXPROCS setting; reads are processed one at a time")
	build.DefineStringFlag("reads", "", "comma-separated read files (fa/fasta/fq/fastq, optionally .gz/.br/.zst)")
	build.DefineStringFlag("C", "", "optional library-list config file (see config.LoadLibraryList)")
	build.DefineStringFlag("o", "out.gfa", "output graph path (.gfa, optionally .zst)")
	build.DefineStringFlag("Graph", "", "optional debug dot graph output path")
	build.DefineStringFlag("cpuprofile", "", "write a CPU profile to this file")
}

func main() {
	app.Start()
}

func checkArgs(c cli.Command) config.Options {
	var opt config.Options
	opt.KmerSize = c.Flag("k").Get().(int)
	opt.WindowSize = c.Flag("w").Get().(int)
	opt.MinCoverage = uint64(c.Flag("minCoverage").Get().(int))
	opt.MinUnitigCoverage = c.Flag("minUnitigCoverage").Get().(float64)
	opt.HPC = c.Flag("hpc").Get().(bool)
	opt.NumThreads = c.Flag("t").Get().(int)
	opt.Output = c.Flag("o").String()
	opt.DotGraph = c.Flag("Graph").String()
	opt.CpuProfile = c.Flag("cpuprofile").String()
	if rs := c.Flag("reads").String(); rs != "" {
		opt.Reads = strings.Split(rs, ",")
	}

	if cfgFn := c.Flag("C").String(); cfgFn != "" {
		libReads, err := config.LoadLibraryList(cfgFn)
		if err != nil {
			log.Fatalf("[build] loading library list %v: %v\n", cfgFn, err)
		}
		opt.Reads = append(opt.Reads, libReads...)
	}
	if err := opt.Check(); err != nil {
		log.Fatalf("[build] invalid arguments: %v\n", err)
	}
	return opt
}

// Build is the "build" subcommand entry point.
func Build(c cli.Command) {
	opt := checkArgs(c)
	fmt.Printf("[build] opt:%+v\n", opt)
	runtime.GOMAXPROCS(opt.NumThreads)

	if opt.CpuProfile != "" {
		f, err := os.Create(opt.CpuProfile)
		if err != nil {
			log.Fatalf("[build] open cpuprofile file %v failed: %v\n", opt.CpuProfile, err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	list := hashlist.New(opt.KmerSize)
	list.EnableSketch(estimateKmers(opt.Reads))

	ingestAll(opt, list, func(codes []byte, lens []uint16) error {
		list.Ingest(codes, lens, opt.WindowSize)
		return nil
	})
	list.BuildReverseCompHashSequences()

	broken := transitive.Clean(list, opt.KmerSize)
	fmt.Printf("[build] transitive.Clean broke %d edges\n", broken)

	g := unitig.GetUnitigGraph(list, opt.MinCoverage)
	fmt.Printf("[build] unitig graph: %d unitigs, %d edges\n", g.NumNodes(), g.NumEdges())

	if opt.MinUnitigCoverage > 0 {
		g = unitig.FilterByCoverage(g, opt.MinUnitigCoverage)
		fmt.Printf("[build] after coverage filter: %d unitigs, %d edges\n", g.NumNodes(), g.NumEdges())
	}

	maker := consensus.New(list, g, opt.KmerSize)
	ingestAll(opt, list, func(codes []byte, lens []uint16) error {
		return maker.IngestRead(list, opt.WindowSize, codes, lens)
	})
	_, winners, si := maker.Finalize()

	sink, err := graphio.Create(opt.Output)
	if err != nil {
		log.Fatalf("[build] opening output %v: %v\n", opt.Output, err)
	}
	if err := graphio.Write(sink, g, list, winners, si); err != nil {
		log.Fatalf("[build] writing output %v: %v\n", opt.Output, err)
	}
	if err := sink.Close(); err != nil {
		log.Fatalf("[build] closing output %v: %v\n", opt.Output, err)
	}

	if opt.DotGraph != "" {
		if err := graphio.WriteDot(opt.DotGraph, g); err != nil {
			log.Fatalf("[build] writing dot graph %v: %v\n", opt.DotGraph, err)
		}
	}
	fmt.Printf("[build] done, wrote %v\n", opt.Output)
}

// ingestAll streams every configured read file through visit, encoding
// each record per opt.HPC before handing it off. A non-nil error from
// visit (a ContractViolation from consensus disagreement, typically) is
// fatal, matching the rest of Build's error handling.
func ingestAll(opt config.Options, list *hashlist.HashList, visit func(codes []byte, lens []uint16) error) {
	src, err := reads.OpenAll(opt.Reads)
	if err != nil {
		log.Fatalf("[build] opening reads: %v\n", err)
	}
	defer src.Close()

	for {
		rec, err := src.Next()
		if err != nil {
			break
		}
		codes, lens, err := reads.Encode(rec, opt.HPC)
		if err != nil {
			log.Fatalf("[build] encoding read %v#%d: %v\n", rec.Path, rec.Index, err)
		}
		if err := visit(codes, lens); err != nil {
			log.Fatalf("[build] ingesting read %v#%d: %v\n", rec.Path, rec.Index, err)
		}
	}
}

// estimateKmers sizes the cuckoo-filter pre-check off the combined size of
// the input files: long-read sets rarely compress their k-mer count far
// below their raw base count, so file size is a cheap, good-enough upper
// estimate without a separate counting pass over the reads.
func estimateKmers(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			total += uint64(fi.Size())
		}
	}
	if total == 0 {
		total = 1 << 20
	}
	return total
}
