package inputs

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type CalibrationParameters struct {
	Title          string  `yaml:"Title"`
	Generator      string  `yaml:"Generator"` // structured, delaunay or file
	MeshRings      int     `yaml:"MeshRings"`
	TargetH        float64 `yaml:"TargetH"`
	MeshFile       string  `yaml:"MeshFile"`
	NumExcitations int     `yaml:"NumExcitations"`
	NumExtractions int     `yaml:"NumExtractions"`
	WindowWidth    float64 `yaml:"WindowWidth"`
	Penalty        float64 `yaml:"Penalty"`
	Reparam        string  `yaml:"Reparam"`
	InsideValue    float64 `yaml:"InsideValue"`
	OutsideValue   float64 `yaml:"OutsideValue"`
	AnomalyX       float64 `yaml:"AnomalyX"`
	AnomalyY       float64 `yaml:"AnomalyY"`
	AnomalyRadius  float64 `yaml:"AnomalyRadius"`
	MaxIterations  int     `yaml:"MaxIterations"`
	GradTolerance  float64 `yaml:"GradTolerance"`
	SolveTolerance float64 `yaml:"SolveTolerance"`
}

func (cp *CalibrationParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, cp); err != nil {
		return err
	}
	cp.applyDefaults()
	return cp.validate()
}

func (cp *CalibrationParameters) applyDefaults() {
	if cp.Generator == "" {
		cp.Generator = "structured"
	}
	if cp.MeshRings == 0 {
		cp.MeshRings = 8
	}
	if cp.TargetH == 0 {
		cp.TargetH = 0.15
	}
	if cp.NumExcitations == 0 {
		cp.NumExcitations = 8
	}
	if cp.NumExtractions == 0 {
		cp.NumExtractions = 8
	}
	if cp.WindowWidth == 0 {
		cp.WindowWidth = 0.5
	}
	if cp.Penalty == 0 {
		cp.Penalty = 10
	}
	if cp.Reparam == "" {
		cp.Reparam = "exp"
	}
	if cp.InsideValue == 0 {
		cp.InsideValue = 0.1
	}
	if cp.OutsideValue == 0 {
		cp.OutsideValue = 0.9
	}
	if cp.AnomalyRadius == 0 {
		cp.AnomalyRadius = 0.4
	}
	if cp.MaxIterations == 0 {
		cp.MaxIterations = 200
	}
	if cp.GradTolerance == 0 {
		cp.GradTolerance = 1.e-8
	}
	if cp.SolveTolerance == 0 {
		cp.SolveTolerance = 1.e-12
	}
}

func (cp *CalibrationParameters) validate() error {
	switch cp.Generator {
	case "structured", "delaunay":
	case "file":
		if cp.MeshFile == "" {
			return fmt.Errorf("Generator [file] requires MeshFile")
		}
	default:
		return fmt.Errorf("unknown Generator [%s], have structured, delaunay and file", cp.Generator)
	}
	if cp.MeshRings < 1 {
		return fmt.Errorf("MeshRings must be at least 1, got %d", cp.MeshRings)
	}
	if cp.NumExcitations < 1 || cp.NumExtractions < 1 {
		return fmt.Errorf("need at least one excitation and one extraction")
	}
	return nil
}

func (cp *CalibrationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%s]\t\t= Generator\n", cp.Generator)
	switch cp.Generator {
	case "structured":
		fmt.Printf("[%d]\t\t\t\t= MeshRings\n", cp.MeshRings)
	case "delaunay":
		fmt.Printf("%8.5f\t\t= TargetH\n", cp.TargetH)
	case "file":
		fmt.Printf("[%s]\t\t= MeshFile\n", cp.MeshFile)
	}
	fmt.Printf("[%d]\t\t\t\t= NumExcitations\n", cp.NumExcitations)
	fmt.Printf("[%d]\t\t\t\t= NumExtractions\n", cp.NumExtractions)
	fmt.Printf("%8.5f\t\t= WindowWidth\n", cp.WindowWidth)
	fmt.Printf("%8.5f\t\t= Penalty\n", cp.Penalty)
	fmt.Printf("[%s]\t\t\t= Reparam\n", cp.Reparam)
	fmt.Printf("%8.5f\t\t= InsideValue\n", cp.InsideValue)
	fmt.Printf("%8.5f\t\t= OutsideValue\n", cp.OutsideValue)
	fmt.Printf("(%g, %g) r=%g\t= Anomaly\n", cp.AnomalyX, cp.AnomalyY, cp.AnomalyRadius)
	fmt.Printf("[%d]\t\t\t= MaxIterations\n", cp.MaxIterations)
	fmt.Printf("%8.1e\t\t= GradTolerance\n", cp.GradTolerance)
	fmt.Printf("%8.1e\t\t= SolveTolerance\n", cp.SolveTolerance)
}
