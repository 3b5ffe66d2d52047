// Package report writes analysis results in the configured formats.
package report

import (
	"fmt"

	"nsguard/internal/core/app"
	"nsguard/internal/core/config"
	"nsguard/internal/shared/util"
	"nsguard/internal/ui/report/formats"
)

// WriteOutputs writes every report named in out. Relative paths are resolved
// against projectRoot. It returns the paths written.
func WriteOutputs(out config.Output, projectRoot string, res app.Result) ([]string, error) {
	var written []string
	write := func(target string, render func() ([]byte, error)) error {
		if target == "" {
			return nil
		}
		data, err := render()
		if err != nil {
			return err
		}
		path := config.ResolveRelative(projectRoot, target)
		if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if err := write(out.Text, func() ([]byte, error) {
		return []byte(formats.GenerateText(projectRoot, res)), nil
	}); err != nil {
		return written, err
	}
	if err := write(out.TSV, func() ([]byte, error) {
		s, err := formats.GenerateTSV(projectRoot, res)
		return []byte(s), err
	}); err != nil {
		return written, err
	}
	if err := write(out.SARIF, func() ([]byte, error) {
		return formats.GenerateSARIF(projectRoot, res)
	}); err != nil {
		return written, err
	}
	return written, nil
}
