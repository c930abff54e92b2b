// SPDX-License-Identifier: MPL-2.0

package assembler

import "github.com/npmpub/npmpub/pkg/npmpublish"

const (
	// SetupTaskName provisions npm for publications without a node directory.
	SetupTaskName = "npmSetup"
	// AssembleLifecycleTask depends on every assemble task.
	AssembleLifecycleTask = "assemble"
	// PackLifecycleTask depends on every pack task.
	PackLifecycleTask = "pack"
	// PublishLifecycleTask depends on every publish task.
	PublishLifecycleTask = "publish"
)

// AssembleTaskName returns "assemble<Pub>NpmPublication".
func AssembleTaskName(publication string) string {
	return "assemble" + npmpublish.ToCamelCase(publication) + "NpmPublication"
}

// PackTaskName returns "pack<Pub>NpmPublication".
func PackTaskName(publication string) string {
	return "pack" + npmpublish.ToCamelCase(publication) + "NpmPublication"
}

// PublishTaskName returns "publish<Pub>NpmPublicationTo<Registry>".
func PublishTaskName(publication, registry string) string {
	return "publish" + npmpublish.ToCamelCase(publication) + "NpmPublicationTo" + npmpublish.ToCamelCase(registry)
}
