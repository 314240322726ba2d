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
	"log/slog"
	"math"
	"time"

	"github.com/inverseproblem/goeit/calib"
	"github.com/spf13/cobra"
)

// calibrateCmd represents the calibrate command
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fit a reparametrized coefficient field to synthetic truth data",
	Long: `
Builds the mesh and model from the input deck, generates synthetic truth
measurements from the deck's two-region anomaly, then runs L-BFGS-B over the
chosen reparametrization to recover the coefficient,

goeit calibrate -I deck.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, err := cmd.Flags().GetString("inputFile")
		if err != nil {
			panic(err)
		}
		cp := processInput(inputFile)
		cp.Print()

		md, err := buildModel(cp)
		if err != nil {
			slog.Error("model setup failed", "err", err)
			return
		}
		rep, err := calib.ByName(cp.Reparam)
		if err != nil {
			slog.Error("bad input deck", "err", err)
			return
		}

		mTrue := calib.TwoRegion(md.M, cp.AnomalyX, cp.AnomalyY,
			cp.AnomalyRadius, cp.InsideValue, cp.OutsideValue)
		truth, err := calib.SyntheticTruth(md, mTrue)
		if err != nil {
			slog.Error("truth generation failed", "err", err)
			return
		}

		start := time.Now()
		res, err := calib.Calibrate(md, rep, truth, calib.InitialTheta(rep, md.M), calib.Options{
			MaxIterations: cp.MaxIterations,
			GradTolerance: cp.GradTolerance,
		})
		if err != nil {
			slog.Error("calibration failed", "err", err)
			return
		}
		slog.Info("calibration done",
			"reparam", rep.Name(),
			"converged", res.Converged,
			"loss", res.Loss,
			"iterations", res.NumIter,
			"evaluations", res.NumEval,
			"elapsed", time.Since(start))
		slog.Info("recovered coefficient",
			"error", coefficientError(res.Coefficient, mTrue),
			"solves", md.Counts)
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().StringP("inputFile", "I", "", "YAML input deck with mesh, measurement and optimizer parameters")
}

// coefficientError is the max dof error against the truth field.
func coefficientError(m, mTrue []float64) (e float64) {
	for k := range m {
		e = math.Max(e, math.Abs(m[k]-mTrue[k]))
	}
	return
}
