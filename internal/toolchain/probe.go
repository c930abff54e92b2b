// SPDX-License-Identifier: MPL-2.0

package toolchain

import "strings"

const (
	// PluginMultiplatform is the multi-target toolchain plugin.
	PluginMultiplatform = "multiplatform"
	// PluginJS is the single-target JavaScript toolchain plugin.
	PluginJS = "js"

	// PlatformJS marks JavaScript targets.
	PlatformJS = "js"

	defaultJSTargetName = "js"
)

// DetectMultiTargetSupport returns the JavaScript targets of a multi-target
// build. ok is false when the multiplatform plugin is not applied.
func DetectMultiTargetSupport(m *Manifest) (targets []Target, ok bool) {
	if m == nil || !m.HasPlugin(PluginMultiplatform) {
		return nil, false
	}
	for _, t := range m.Targets {
		if isJS(t) {
			targets = append(targets, t)
		}
	}
	return targets, true
}

// DetectSingleTargetSupport returns the single JavaScript target of a build
// using the js plugin. A target with no platform counts as JavaScript and an
// unnamed one is called "js".
func DetectSingleTargetSupport(m *Manifest) (targets []Target, ok bool) {
	if m == nil || !m.HasPlugin(PluginJS) {
		return nil, false
	}
	for _, t := range m.Targets {
		if t.Platform != "" && !isJS(t) {
			continue
		}
		if t.Name == "" {
			t.Name = defaultJSTargetName
		}
		return []Target{t}, true
	}
	return nil, true
}

func isJS(t Target) bool {
	return strings.EqualFold(t.Platform, PlatformJS)
}
