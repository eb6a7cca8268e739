package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/viant/afs"

	"github.com/visimlab/simrecon/model/types"
)

const (
	separatorLength = 80
	separatorLines  = 2
)

// CombineLogFiles concatenates per-channel log files into outputPath with an
// optional header and a visual separator between entries, forcing the result
// to stable storage.
func CombineLogFiles(ctx context.Context, fs afs.Service, outputPath, header string, sources ...string) error {
	line := strings.Repeat("-", separatorLength)
	separator := "\n" + strings.Repeat(line+"\n", separatorLines)

	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(header)
		buf.WriteString(separator)
	}
	for i, source := range sources {
		data, err := fs.DownloadWithURL(ctx, source)
		if err != nil {
			return types.NewIOError("cannot read log %v: %v", source, err)
		}
		if i > 0 {
			buf.WriteString(separator)
		}
		buf.Write(data)
	}

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return types.NewIOError("cannot create combined log %v: %v", outputPath, err)
	}
	defer file.Close()
	if _, err := file.Write(buf.Bytes()); err != nil {
		return types.NewIOError("cannot write combined log %v: %v", outputPath, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("%w: sync combined log %v: %v", types.ErrIO, outputPath, err)
	}
	return nil
}
