package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/visimlab/simrecon/model/types"
)

// buildCommand assembles the engine command line from a resolved request.
// Positional arguments come first (input, output, and for reconstruction the
// OTF), followed by `--key=value` flags in sorted order so the command line
// is deterministic.
func (s *Service) buildCommand(request *types.InvokeRequest) (string, error) {
	binary := s.commandFor(request.Kind)
	if binary == "" {
		return "", types.NewInvalidError("no engine command configured for kind %q", request.Kind)
	}
	if request.InputPath == "" || request.OutputPath == "" {
		return "", types.NewInvalidError("engine invocation requires input and output paths")
	}

	args := []string{binary, quoteArg(request.InputPath), quoteArg(request.OutputPath)}
	if request.Kind == types.KindRecon {
		if request.OTFPath == "" {
			return "", types.NewInvalidError("reconstruction of wavelength %d requires an OTF", request.Wavelength)
		}
		args = append(args, quoteArg(request.OTFPath))
	}

	if request.Wavelength > 0 {
		args = append(args, fmt.Sprintf("--wavelength=%d", request.Wavelength))
	}
	if len(request.Shape) == 2 {
		args = append(args, fmt.Sprintf("--shape=%d,%d", request.Shape[0], request.Shape[1]))
	}
	if len(request.Centre) == 2 {
		args = append(args, fmt.Sprintf("--centre=%g,%g", request.Centre[0], request.Centre[1]))
	}

	keys := make([]string, 0, len(request.Params))
	for key := range request.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := request.Params[key]
		if value == nil {
			continue
		}
		switch v := value.(type) {
		case bool:
			if v {
				args = append(args, "--"+key)
			}
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = fmt.Sprintf("%v", item)
			}
			args = append(args, fmt.Sprintf("--%s=%s", key, strings.Join(parts, ",")))
		default:
			args = append(args, fmt.Sprintf("--%s=%v", key, v))
		}
	}

	return strings.Join(args, " "), nil
}

// quoteArg quotes a shell argument when it contains characters the shell
// would otherwise interpret.
func quoteArg(arg string) string {
	if strings.ContainsAny(arg, " \t\"'$&|;<>()*?[]") {
		return strconv.Quote(arg)
	}
	return arg
}
