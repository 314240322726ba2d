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
	"log/slog"
	"os"

	"github.com/inverseproblem/goeit/fem"
	"github.com/inverseproblem/goeit/inputs"
	"github.com/inverseproblem/goeit/mesh"
	"github.com/inverseproblem/goeit/model"
)

func processInput(inputFile string) (cp *inputs.CalibrationParameters) {
	var (
		err error
	)
	if len(inputFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Two-region anomaly"
Generator: structured # Can be "delaunay" or "file"
MeshRings: 8
NumExcitations: 8
NumExtractions: 8
WindowWidth: 0.5
Reparam: exp # Can be "identity", "ellipse" or "mlp"
InsideValue: 0.1
OutsideValue: 0.9
AnomalyRadius: 0.4
MaxIterations: 200
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(inputFile); err != nil {
		panic(err)
	}
	cp = &inputs.CalibrationParameters{}
	if err = cp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func buildMesh(cp *inputs.CalibrationParameters) (msh *mesh.Mesh, err error) {
	switch cp.Generator {
	case "structured":
		msh, err = mesh.NewUnitDisk(cp.MeshRings)
	case "delaunay":
		msh, err = mesh.DelaunayUnitDisk(cp.TargetH)
	case "file":
		msh, err = mesh.ReadSU2(cp.MeshFile, verbose)
	default:
		err = fmt.Errorf("unknown mesh generator [%s]", cp.Generator)
	}
	return
}

func buildModel(cp *inputs.CalibrationParameters) (md *model.Model, err error) {
	msh, err := buildMesh(cp)
	if err != nil {
		return
	}
	slog.Info("mesh built",
		"generator", cp.Generator,
		"vertices", msh.Nv,
		"elements", msh.K,
		"area", msh.TotalArea())

	prm := fem.DefaultFormParams()
	prm.Alpha = cp.Penalty
	md, err = model.New(msh,
		model.EquispacedWindows(cp.NumExcitations, cp.WindowWidth),
		model.EquispacedWindows(cp.NumExtractions, cp.WindowWidth),
		prm)
	if err != nil {
		return
	}
	md.Solver.Tolerance = cp.SolveTolerance
	return
}
