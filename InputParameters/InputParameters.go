package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type SolverParameters struct {
	Title                string    `yaml:"Title"`
	AmbientMagneticField []float64 `yaml:"AmbientMagneticField"`
	ReceiverHeader       int       `yaml:"ReceiverHeader"`
	OutputPrefix         string    `yaml:"OutputPrefix"`
}

func (sp *SolverParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

func (sp *SolverParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("%v\t= AmbientMagneticField\n", sp.AmbientMagneticField)
	fmt.Printf("[%d]\t\t\t= ReceiverHeader\n", sp.ReceiverHeader)
	fmt.Printf("[%s]\t\t\t= OutputPrefix\n", sp.OutputPrefix)
}
