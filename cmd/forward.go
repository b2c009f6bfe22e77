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

// forwardCmd represents the forward command
var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Forward solve: predicted field value at each receiver location",
	Long: `
Runs the forward magnetic solver for every property file in this process's
partition, producing one predicted field value per observation point,

magsolve forward`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("forward called")
		mr := modelFromFlags(cmd)
		processInput(mr)
		RunSolve(mr, solver.Forward)
	},
}

func init() {
	rootCmd.AddCommand(forwardCmd)
	registerSolveFlags(forwardCmd)
}
