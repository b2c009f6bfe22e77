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

	"github.com/spf13/cobra"

	"github.com/isciml/magsolve/solver"
)

// adjointCmd represents the adjoint command
var adjointCmd = &cobra.Command{
	Use:   "adjoint",
	Short: "Adjoint solve: per-cell sensitivity values for inversion gradients",
	Long: `
Runs the adjoint magnetic solver for every property file in this process's
partition, producing one sensitivity value per mesh cell. Requires scalar
direction cosines (isotropic magnetization),

magsolve adjoint`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("adjoint called")
		mr := modelFromFlags(cmd)
		processInput(mr)
		RunSolve(mr, solver.Adjoint)
	},
}

func init() {
	rootCmd.AddCommand(adjointCmd)
	registerSolveFlags(adjointCmd)
}
