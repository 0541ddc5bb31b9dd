// Package rules holds the built-in manifest validation rules. Each rule
// registers itself on import; importers blank-import the package to make the
// registry complete.
package rules

import (
	"context"
	"fmt"

	"qgispluginci/internal/metadata"
	"qgispluginci/internal/validate"
)

type MetadataExistsRule struct{}

func (r *MetadataExistsRule) ID() string {
	return "metadata-exists"
}

func (r *MetadataExistsRule) Title() string {
	return "Plugin Manifest Exists"
}

func (r *MetadataExistsRule) Description() string {
	return fmt.Sprintf("Verifies that the plugin source directory contains a parseable %s.", metadata.FileName)
}

func (r *MetadataExistsRule) Evaluate(ctx context.Context, target validate.Target) (validate.Result, error) {
	if target.Plugin == nil {
		msg := fmt.Sprintf("%s is missing or not parseable", metadata.FileName)
		if target.ReadErr != nil {
			msg = target.ReadErr.Error()
		}
		return validate.FailResult(target, r.ID(), msg), nil
	}
	return validate.PassResult(target, r.ID()), nil
}

func init() {
	validate.Register(&MetadataExistsRule{})
}
