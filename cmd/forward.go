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
	"log/slog"
	"time"

	"github.com/inverseproblem/goeit/calib"
	"github.com/spf13/cobra"
)

// forwardCmd represents the forward command
var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Evaluate the boundary measurement matrix for a coefficient field",
	Long: `
Builds the mesh and model from the input deck, places the deck's two-region
anomaly coefficient on it and prints the resulting measurement matrix,

goeit forward -I deck.yaml`,
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

		m := calib.TwoRegion(md.M, cp.AnomalyX, cp.AnomalyY,
			cp.AnomalyRadius, cp.InsideValue, cp.OutsideValue)
		start := time.Now()
		meas, err := md.Evaluate(m)
		if err != nil {
			slog.Error("forward evaluation failed", "err", err)
			return
		}
		slog.Info("forward evaluation done",
			"excitations", md.NumExcitations(),
			"extractions", md.NumExtractions(),
			"elapsed", time.Since(start))
		fmt.Printf("Measurement matrix:\n%s\n", meas.String())
	},
}

func init() {
	rootCmd.AddCommand(forwardCmd)
	forwardCmd.Flags().StringP("inputFile", "I", "", "YAML input deck with mesh and measurement parameters")
}
