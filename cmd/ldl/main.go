// Command ldl runs and controls the lab data logger: the recorder, the
// DataService manager and individual DataServices.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
