package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/ferrous-lang/ferrous/internal/compiler"
)

// LoadMode controls how unit compilation errors are handled.
type LoadMode int

const (
	// LoadModeFailFast stops at the first unit that fails to compile.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every unit and reports all failures.
	LoadModeCollectAll
)

// LoadResult is the outcome of loading a unit directory.
type LoadResult struct {
	Units     []*compiler.Unit
	CUEValue  cue.Value // raw CUE value, kept for commands that re-query it
	FileCount int
}

// LoadError is a coded loading failure, with a CUE source position when
// the underlying compiler error carries one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func loadFailure(code, format string, args ...interface{}) []error {
	return []error{&LoadError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// LoadUnits compiles every compilation unit found under dir. Units live in
// the top-level "units" struct, one field per unit; the result is
// name-sorted so output order never depends on CUE evaluation order.
func LoadUnits(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return nil, loadFailure(ErrCodeNotFound, "unit directory not found: %s", dir)
	case err != nil:
		return nil, loadFailure(ErrCodeNotFound, "error accessing unit directory: %v", err)
	case !info.IsDir():
		return nil, loadFailure(ErrCodeNotFound, "not a directory: %s", dir)
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, loadFailure(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(cueFiles) == 0 {
		return nil, loadFailure(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, loadFailure(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, loadFailure(ErrCodeLoadFailed, "loading CUE files: %v", inst.Err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, loadFailure(ErrCodeBuildFailed, "building CUE value: %v", err)
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}

	unitsVal := value.LookupPath(cue.ParsePath("units"))
	if !unitsVal.Exists() {
		return result, loadFailure(ErrCodeGeneric, "no units found: expected a top-level units struct")
	}
	iter, err := unitsVal.Fields()
	if err != nil {
		return result, loadFailure(ErrCodeGeneric, "iterating units: %v", err)
	}

	var errs []error
	for iter.Next() {
		unit, compileErr := compiler.CompileUnit(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "units."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if unit.Name == "" {
			unit.Name = iter.Label()
		}
		result.Units = append(result.Units, unit)
	}
	sort.Slice(result.Units, func(i, j int) bool { return result.Units[i].Name < result.Units[j].Name })

	if len(result.Units) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no units found in directory"})
	}
	return result, errs
}

// FindCUEFiles returns every .cue file under dir, recursively.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", context, err)}
}

// Error codes shared by every command.
const (
	ErrCodeGeneric     = "E001" // unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // file write error

	ErrCodeUnitExpr     = "E101" // missing or malformed expression tree
	ErrCodeUnitKind     = "E102" // unknown expression node kind
	ErrCodeUnitEvidence = "E103" // malformed evidence section
	ErrCodeLowering     = "E104" // expression failed to lower
)

// MapFieldToErrorCode maps a compiler error field to its error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "expr", "expr.dict", "expr.comprehension":
		return ErrCodeUnitExpr
	case "expr.kind":
		return ErrCodeUnitKind
	case "evidence.attrs":
		return ErrCodeUnitEvidence
	default:
		return ErrCodeGeneric
	}
}
