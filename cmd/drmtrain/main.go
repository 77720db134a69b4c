// Command drmtrain builds a dynamic reduced-order model (DABNet or
// NARMA) from a YAML build manifest and a CSV identification dataset,
// mirroring the teacher's main.go flag-based CLI and CPU-profiling
// setup, generalized from classifier training to D-RM training.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"

	"github.com/CCSI-Toolset/drm/pkg/config"
	"github.com/CCSI-Toolset/drm/pkg/dabnet"
	"github.com/CCSI-Toolset/drm/pkg/dataset"
	"github.com/CCSI-Toolset/drm/pkg/drm"
	"github.com/CCSI-Toolset/drm/pkg/narma"
)

var (
	manifestPath string
	dataPath     string
	outPath      string
	profilePath  string
	seed         int64
)

func init() {
	flag.StringVar(&manifestPath, "manifest", "", "Path to the YAML build manifest")
	flag.StringVar(&dataPath, "data", "", "Path to the CSV identification data set")
	flag.StringVar(&outPath, "out", "drm.txt", "Path to write the exported D-RM")
	flag.StringVar(&profilePath, "profile", "", "Optional path to write a CPU profile")
	flag.Int64Var(&seed, "seed", 1, "Seed for the process-wide random generator")
}

func parseCliFlags() error {
	flag.Parse()
	if manifestPath == "" {
		return errors.New("you must specify the path to the build manifest")
	}
	if dataPath == "" {
		return errors.New("you must specify the path to the identification data set")
	}
	return nil
}

// buildDRMConfig resolves a validated pkg/config.BuildConfig into the
// concrete pkg/drm.Config the container needs, translating each
// per-(output,input) manifest entry into a dabnet.InputConfig.
func buildDRMConfig(c *config.BuildConfig) drm.Config {
	cfg := drm.Config{
		NInput:         c.NInput,
		NOutput:        c.NOutput,
		LaguerreNewton: c.LaguerreMethod == config.MethodNewton,
		ReducedNewton:  c.ReducedMethod == config.MethodNewton,
		MaxIterations:  c.MaxIterations,
	}
	switch c.Kind {
	case "dabnet":
		cfg.Kind = drm.ModelDabnet
		cfg.Outputs = make([]drm.OutputBuild, len(c.Outputs))
		for i, oc := range c.Outputs {
			inputs := make([]dabnet.InputConfig, len(oc.Inputs))
			poleMin := make([]float64, 0, len(oc.Inputs)*2)
			poleMax := make([]float64, 0, len(oc.Inputs)*2)
			for j, ic := range oc.Inputs {
				nstate := ic.Order1
				if ic.TwoPole {
					nstate += ic.Order2
				}
				inputs[j] = dabnet.InputConfig{
					Pole:     ic.Pole1,
					Pole2:    ic.Pole2,
					NDelay:   ic.NDelay,
					NState:   nstate,
					NState2:  ic.Order2,
					UsePole2: ic.TwoPole,
				}
				poleMin = append(poleMin, 0.001)
				poleMax = append(poleMax, 0.9999)
			}
			var mode drm.PoleOptMode
			switch oc.PoleOptimize {
			case config.PoleOptFast:
				mode = drm.PoleOptFast
			case config.PoleOptSlow:
				mode = drm.PoleOptSlow
			case config.PoleOptBoth:
				mode = drm.PoleOptBoth
			default:
				mode = drm.PoleOptNone
			}
			cfg.Outputs[i] = drm.OutputBuild{
				Dabnet: dabnet.Config{
					OutputIndex:   i,
					HiddenNeurons: oc.HiddenNeurons,
					LinearHidden:  oc.LinearActivation,
					ScaleInput:    true,
					Inputs:        inputs,
				},
				PoleOpt: mode,
				PoleMin: poleMin,
				PoleMax: poleMax,
			}
		}
	case "narma":
		cfg.Kind = drm.ModelNarma
		cfg.Narma = narma.Config{
			NInput:        c.NInput,
			NOutput:       c.NOutput,
			NHistory:      c.NarmaHistory,
			HiddenNeurons: c.NarmaHiddenNeurons,
		}
	}
	return cfg
}

func main() {
	if err := parseCliFlags(); err != nil {
		fmt.Printf("Error parsing cli flags: %s\n", err)
		os.Exit(1)
	}

	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	buildCfg, err := config.NewBuildConfig(manifestPath)
	if err != nil {
		fmt.Printf("Error parsing build manifest: %s\n", err)
		os.Exit(1)
	}

	data, err := dataset.NewFromCSV(dataPath, buildCfg.NInput, buildCfg.NOutput)
	if err != nil {
		fmt.Printf("Error loading identification data: %s\n", err)
		os.Exit(1)
	}

	model, err := drm.New(buildDRMConfig(buildCfg), data)
	if err != nil {
		fmt.Printf("Error configuring D-RM: %s\n", err)
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(seed))
	fmt.Println("Starting to generate D-RM. It takes a while to train neural network. Please wait...")
	if err := model.Generate(rnd); err != nil {
		fmt.Printf("Error generating D-RM: %s\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Printf("Error creating output file: %s\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := model.Export(out); err != nil {
		fmt.Printf("Error exporting D-RM: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("D-RM written to %s\n", outPath)
}
