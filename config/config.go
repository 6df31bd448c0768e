// Package config resolves the CLI flags and optional library-list file
// of cmd/unitig into one Options value, in the teacher's ArgsOpt/CfgInfo
// idiom (constructcf.go's CheckGlobalArgs and ParseCfg).
package config

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/mudesheng/unitiggraph/unitigerr"
)

// Options is every tunable of one assembly run.
type Options struct {
	KmerSize          int
	WindowSize        int
	MinCoverage       uint64
	MinUnitigCoverage float64
	HPC               bool
	NumThreads        int
	Output            string
	DotGraph          string
	CpuProfile        string
	Reads             []string
}

// Check validates the flag values the teacher's CheckGlobalArgs-style
// range checks would catch at startup, before any work begins.
func (o Options) Check() error {
	if o.KmerSize < 1 || o.KmerSize%2 != 1 {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "-k must be a positive odd number"}
	}
	if o.WindowSize < 1 {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "-w must be positive"}
	}
	if o.NumThreads < 1 {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "-t must be positive"}
	}
	if o.MinUnitigCoverage > 0 && o.MinUnitigCoverage < float64(o.MinCoverage) {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "-minUnitigCoverage must be at least -minCoverage"}
	}
	if o.Output == "" {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "-o output path not set"}
	}
	if len(o.Reads) == 0 {
		return &unitigerr.ContractViolation{Phase: "config.Check", Reason: "no read files given, directly or via -C"}
	}
	return nil
}

// LoadLibraryList reads a "[LIB]"-sectioned library-list config file
// (one or more "f = <path>" lines per library) and appends every file
// path it names, in the teacher's ParseCfg line-field convention.
func LoadLibraryList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &unitigerr.ResourceError{Phase: "config.LoadLibraryList", Reason: err.Error()}
	}
	defer f.Close()

	var paths []string
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, &unitigerr.FormatError{File: path, Reason: err.Error()}
		}
		fields := strings.Fields(line)
		if len(fields) >= 1 {
			switch fields[0] {
			case "[LIB]", "[global_setting]":
			case "f":
				if len(fields) < 3 {
					return nil, &unitigerr.FormatError{File: path, Reason: "malformed 'f = <path>' line: " + line}
				}
				paths = append(paths, fields[2])
			case "name":
			default:
				if len(fields[0]) > 0 && fields[0][0] != '#' && fields[0][0] != ';' {
					return nil, &unitigerr.FormatError{File: path, Reason: "unrecognized line: " + line}
				}
			}
		}
		if err == io.EOF {
			break
		}
	}
	return paths, nil
}
