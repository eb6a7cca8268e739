//go:build !unix

package capture

import (
	"fmt"
	"os"
	"runtime"

	"github.com/visimlab/simrecon/model/types"
)

// redirect is unavailable where descriptor duplication is not portable; Run
// degrades to executing the operation uncaptured.
func redirect(_ *os.File) (func() error, error) {
	return nil, fmt.Errorf("%w: descriptor redirection is not supported on %s", types.ErrRedirect, runtime.GOOS)
}
