package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modwire/internal/ports"
	"modwire/internal/types"
)

const (
	wireMapFileName    = "wires.yaml"
	resolutionFileName = "resolution.yaml"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

func (a OutputFileAdapter) WriteWireMap(file types.WireMapFile) error {
	return a.writeYAML(wireMapFileName, file)
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	return a.writeYAML(resolutionFileName, report)
}

func (a OutputFileAdapter) writeYAML(name string, value any) error {
	path, err := a.ensurePath(name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode output document").
			WithCause(err)
	}
	return os.WriteFile(path, data, 0644)
}

func (a OutputFileAdapter) ensurePath(name string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, name), nil
}

var _ ports.OutputPort = OutputFileAdapter{}

// OutputReaderAdapter reads resolve outputs back for inspection.
type OutputReaderAdapter struct {
	Dir string
}

func NewOutputReaderAdapter(dir string) OutputReaderAdapter {
	return OutputReaderAdapter{Dir: dir}
}

func (a OutputReaderAdapter) ReadWireMap() (types.WireMapFile, error) {
	data, err := os.ReadFile(filepath.Join(a.Dir, wireMapFileName))
	if err != nil {
		return types.WireMapFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("wire map output not found").
			WithCause(err)
	}
	var file types.WireMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.WireMapFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid wire map output").
			WithCause(err)
	}
	return file, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
