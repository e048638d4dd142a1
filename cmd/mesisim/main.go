// Command mesisim runs the 4-core MESI cache-coherence simulator over a
// set of input files and writes bus/core traces and end-of-run dumps.
package main

import (
	"os"

	mesisim "github.com/dshearer/mesisim"
	"github.com/dshearer/mesisim/internal/logging"
	"github.com/dshearer/mesisim/internal/trace"
)

// argPaths returns argv[1..27] with defaults filled in for any omitted
// tail argument.
func argPaths(argv []string) [27]string {
	defaults := [27]string{
		"imem0.txt", "imem1.txt", "imem2.txt", "imem3.txt",
		"memin.txt",
		"memout.txt",
		"regout0.txt", "regout1.txt", "regout2.txt", "regout3.txt",
		"core0trace.txt", "core1trace.txt", "core2trace.txt", "core3trace.txt",
		"bustrace.txt",
		"dsram0.txt", "dsram1.txt", "dsram2.txt", "dsram3.txt",
		"tsram0.txt", "tsram1.txt", "tsram2.txt", "tsram3.txt",
		"stats0.txt", "stats1.txt", "stats2.txt", "stats3.txt",
	}
	var paths [27]string
	for i := range paths {
		if i+1 < len(argv) {
			paths[i] = argv[i+1]
		} else {
			paths[i] = defaults[i]
		}
	}
	return paths
}

// files holds every one of the 27 open handles argPaths names, opened up
// front before the simulation runs a single cycle: open everything,
// fail loud, exit 1 on the first error.
type files struct {
	imem   [4]*os.File
	memin  *os.File
	memout *os.File
	regout [4]*os.File
	core   [4]*os.File
	bus    *os.File
	dsram  [4]*os.File
	tsram  [4]*os.File
	stats  [4]*os.File
	all    []*os.File
}

func openAll(paths [27]string, logger *logging.Logger) *files {
	f := &files{}
	fail := func(op, path string, err error) {
		logger.Errorf("%s", mesisim.NewFileError(op, path, err))
		for _, h := range f.all {
			h.Close()
		}
		os.Exit(1)
	}
	openIn := func(op, path string) *os.File {
		h, err := os.Open(path)
		if err != nil {
			fail(op, path, err)
		}
		f.all = append(f.all, h)
		return h
	}
	openOut := func(op, path string) *os.File {
		h, err := os.Create(path)
		if err != nil {
			fail(op, path, err)
		}
		f.all = append(f.all, h)
		return h
	}

	for i := 0; i < 4; i++ {
		f.imem[i] = openIn("openImem", paths[i])
	}
	f.memin = openIn("openMemin", paths[4])
	f.memout = openOut("openMemout", paths[5])
	for i := 0; i < 4; i++ {
		f.regout[i] = openOut("openRegout", paths[6+i])
	}
	for i := 0; i < 4; i++ {
		f.core[i] = openOut("openCoreTrace", paths[10+i])
	}
	f.bus = openOut("openBusTrace", paths[14])
	for i := 0; i < 4; i++ {
		f.dsram[i] = openOut("openDsram", paths[15+i])
	}
	for i := 0; i < 4; i++ {
		f.tsram[i] = openOut("openTsram", paths[19+i])
	}
	for i := 0; i < 4; i++ {
		f.stats[i] = openOut("openStats", paths[23+i])
	}
	return f
}

func (f *files) closeAll() {
	for _, h := range f.all {
		h.Close()
	}
}

func main() {
	logger := logging.Default()
	paths := argPaths(os.Args)
	f := openAll(paths, logger)
	defer f.closeAll()

	var programs [4][]uint32
	for i := 0; i < 4; i++ {
		words, err := trace.ReadWordFile(f.imem[i])
		if err != nil {
			logger.Errorf("%s", mesisim.NewWordError("loadProgram", paths[i], err))
			os.Exit(1)
		}
		programs[i] = words
	}
	memWords, err := trace.ReadWordFile(f.memin)
	if err != nil {
		logger.Errorf("%s", mesisim.NewWordError("loadMemin", paths[4], err))
		os.Exit(1)
	}

	cfg := mesisim.Config{BusTrace: f.bus}
	for i := 0; i < 4; i++ {
		cfg.CoreTrace[i] = f.core[i]
	}

	sim := mesisim.NewSimulation(programs, memWords, cfg)
	sim.Run()

	if err := trace.WriteWordDump(f.memout, trace.TrimTrailingZeros(sim.MemWords())); err != nil {
		logger.Errorf("writeMemout: %v", err)
		os.Exit(1)
	}
	for i := 0; i < 4; i++ {
		if err := trace.WriteRegDump(f.regout[i], sim.RegSnapshot(i)); err != nil {
			logger.Errorf("writeRegout[%d]: %v", i, err)
			os.Exit(1)
		}
		if err := trace.WriteWordDump(f.dsram[i], sim.DSRAMWords(i)); err != nil {
			logger.Errorf("writeDsram[%d]: %v", i, err)
			os.Exit(1)
		}
		if err := trace.WriteWordDump(f.tsram[i], sim.TSRAMWords(i)); err != nil {
			logger.Errorf("writeTsram[%d]: %v", i, err)
			os.Exit(1)
		}
		if err := trace.WriteStatsDump(f.stats[i], sim.Stats(i).Lines()); err != nil {
			logger.Errorf("writeStats[%d]: %v", i, err)
			os.Exit(1)
		}
	}
}
