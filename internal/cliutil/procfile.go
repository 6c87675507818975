package cliutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/Paintersrp/subproc/internal/config"
)

// LoadProcfile reads and validates a process manifest, wrapping not-found
// errors with a hint about the expected location.
func LoadProcfile(path string) (*config.Procfile, error) {
	pf, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("manifest %s not found (use -f to point at your procfile)", path)
		}
		return nil, err
	}
	return pf, nil
}
