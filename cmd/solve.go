/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/isciml/magsolve/InputParameters"
	"github.com/isciml/magsolve/batch"
	"github.com/isciml/magsolve/magkernel"
	"github.com/isciml/magsolve/magnetics"
	"github.com/isciml/magsolve/mesh/readers"
	"github.com/isciml/magsolve/receivers"
	"github.com/isciml/magsolve/solver"
)

// ModelRun collects everything one solve command needs.
type ModelRun struct {
	VTKFile        string
	ReceiverFile   string
	InputFolder    string
	OutputFolder   string
	OutputPrefix   string
	ParametersFile string
	AmbientField   []float64
	ReceiverHeader int
	Rank           int
	NumProcs       int
}

func registerSolveFlags(c *cobra.Command) {
	c.Flags().StringP("vtk", "F", "", "Mesh file in legacy VTK format")
	c.Flags().StringP("receiverFile", "R", "", "Receiver locations file in CSV format")
	c.Flags().StringP("inputFolder", "i", "", "Folder with files containing magnetic properties in numpy format")
	c.Flags().StringP("outputFolder", "o", "", "Folder for the per-file solver outputs in numpy format")
	c.Flags().String("outputPrefix", "", "Output prefix appended to input file names, defaults to the solver mode")
	c.Flags().StringP("parametersFile", "I", "", "YAML file for input parameters like:\n\t- AmbientMagneticField\n\t- ReceiverHeader")
	c.Flags().Float64Slice("ambientField", []float64{820.5, 16241.7, 53380.0}, "Ambient magnetic field components Bx,By,Bz")
	c.Flags().Int("receiverHeader", 0, "Number of header lines to skip in the receiver file")
	c.Flags().Int("rank", 0, "This process's rank in [0,np)")
	c.Flags().Int("np", 0, "Total number of cooperating processes (0 = detect from the launcher environment)")
}

func modelFromFlags(cmd *cobra.Command) *ModelRun {
	var (
		err error
	)
	mr := &ModelRun{}
	if mr.VTKFile, err = cmd.Flags().GetString("vtk"); err != nil {
		panic(err)
	}
	if mr.ReceiverFile, err = cmd.Flags().GetString("receiverFile"); err != nil {
		panic(err)
	}
	mr.InputFolder, _ = cmd.Flags().GetString("inputFolder")
	mr.OutputFolder, _ = cmd.Flags().GetString("outputFolder")
	mr.OutputPrefix, _ = cmd.Flags().GetString("outputPrefix")
	mr.ParametersFile, _ = cmd.Flags().GetString("parametersFile")
	mr.AmbientField, _ = cmd.Flags().GetFloat64Slice("ambientField")
	mr.ReceiverHeader, _ = cmd.Flags().GetInt("receiverHeader")
	mr.Rank, _ = cmd.Flags().GetInt("rank")
	mr.NumProcs, _ = cmd.Flags().GetInt("np")
	return mr
}

func processInput(mr *ModelRun) {
	var (
		willExit bool
	)
	if len(mr.VTKFile) == 0 {
		fmt.Printf("error: must supply a mesh file (-F, --vtk) in legacy VTK format\n")
		willExit = true
	}
	if len(mr.ReceiverFile) == 0 {
		fmt.Printf("error: must supply a receiver locations file (-R, --receiverFile) in CSV format\n")
		willExit = true
	}
	if len(mr.InputFolder) == 0 {
		fmt.Printf("error: must supply a magnetic properties folder (-i, --inputFolder)\n")
		willExit = true
	}
	if len(mr.OutputFolder) == 0 {
		fmt.Printf("error: must supply an output folder (-o, --outputFolder)\n")
		exampleFile := `
########################################
Title: "Survey Block A"
AmbientMagneticField: [820.5, 16241.7, 53380.0]
ReceiverHeader: 1
OutputPrefix: adjoint
########################################
`
		fmt.Printf("Example parameters file (-I, --parametersFile):%s\n", exampleFile)
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}
	if len(mr.ParametersFile) != 0 {
		var data []byte
		data, err := ioutil.ReadFile(mr.ParametersFile)
		if err != nil {
			panic(err)
		}
		sp := &InputParameters.SolverParameters{}
		if err = sp.Parse(data); err != nil {
			panic(err)
		}
		sp.Print()
		if len(sp.AmbientMagneticField) != 0 {
			mr.AmbientField = sp.AmbientMagneticField
		}
		if sp.ReceiverHeader > 0 {
			mr.ReceiverHeader = sp.ReceiverHeader
		}
		if len(sp.OutputPrefix) != 0 && len(mr.OutputPrefix) == 0 {
			mr.OutputPrefix = sp.OutputPrefix
		}
	}
}

// RunSolve builds the shared run state and drives this process's share of
// the batch. All validation happens before any solving begins; every failure
// terminates the process with a non-zero status.
func RunSolve(mr *ModelRun, mode solver.Mode) {
	defer startProfile().Stop()

	topo, err := resolveTopology(mr)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	logger := log.New(os.Stdout, fmt.Sprintf("rank %d/%d: ", topo.Rank, topo.Size), log.LstdFlags)

	ambient, err := magnetics.NewAmbientField(mr.AmbientField)
	if err != nil {
		logger.Fatal(err)
	}

	msh, err := readers.ReadMeshFile(mr.VTKFile)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("mesh loaded: %d vertices, %d cells", msh.NumVertices, msh.NumCells)

	rx, err := receivers.Load(mr.ReceiverFile, mr.ReceiverHeader)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("receivers loaded: %d observation points", rx.Count())

	runner := &batch.Runner{
		Mesh:         msh,
		Solver:       solver.New(rx, ambient, magkernel.New()),
		Ambient:      ambient,
		Topology:     topo,
		Mode:         mode,
		InputFolder:  mr.InputFolder,
		OutputFolder: mr.OutputFolder,
		OutputPrefix: mr.OutputPrefix,
		Log:          logger,
	}
	if err := runner.Run(); err != nil {
		logger.Fatal(err)
	}
}

// resolveTopology prefers explicit --rank/--np flags and falls back to the
// launcher environment, then to a single-process run.
func resolveTopology(mr *ModelRun) (batch.ProcessTopology, error) {
	if mr.NumProcs == 0 {
		if topo, ok := batch.TopologyFromEnv(); ok {
			return topo, nil
		}
		return batch.NewProcessTopology(0, 1)
	}
	return batch.NewProcessTopology(mr.Rank, mr.NumProcs)
}
