// Command ssep-search searches SSEP thruster design parameters.
// CLI handling lives in the Cobra commands under cmd/.
package main

import (
	"github.com/ssep-lab/ssep-search/cmd"
)

func main() {
	cmd.Execute()
}
