package settings

import "github.com/visimlab/simrecon/model/types"

// DefaultOTFSchema lists the keys the bundled engine accepts for OTF
// conversion. Callers integrating a different engine build can swap the
// schema via WithSchemas.
var DefaultOTFSchema = types.NewSchema("otf",
	"nphases",
	"ls",
	"na",
	"nimm",
	"angle",
	"background",
	"beaddiam",
	"leavekz",
	"fixorigin",
	"nocompen",
	"interpkr",
	"xyres",
	"zres",
)

// DefaultReconSchema lists the keys the bundled engine accepts for
// reconstruction.
var DefaultReconSchema = types.NewSchema("recon",
	"ndirs",
	"nphases",
	"otfRA",
	"wiener",
	"background",
	"usecorr",
	"k0angles",
	"ls",
	"na",
	"nimm",
	"zoomfact",
	"zzoom",
	"explodefact",
	"nofilteroverlaps",
	"dampenOrder0",
	"forcemodamp",
	"gammaApo",
	"xyres",
	"zres",
	"zresPSF",
)
