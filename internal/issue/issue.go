// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ProjectFileNotFoundId Id = iota + 1
	ProjectFileParseErrorId
	ConfigLoadFailedId
	ManifestLoadFailedId
	NpmNotFoundId
	NoValidPublicationsId
	PackFailedId
	PublishFailedId
	TaskNotFoundId
	DependencyCycleId
	ReleaseFailedId
	InvalidPublishingConfigId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	projectFileNotFoundIssue = &Issue{
		id: ProjectFileNotFoundId,
		mdMsg: `
# No npmpub.cue found!

npmpub reads publications and registries from an npmpub.cue file in the
project directory.

## Things you can try:
- Run from the project root, or point at it:
~~~
$ npmpub --project ./path/to/project tasks
~~~

## Minimal project file:
~~~cue
name:    "my-lib"
version: "1.0.0"
toolchain_manifest: "build/toolchain.toml"

registries: npmjs: {
	registry:   "https://registry.npmjs.org"
	auth_token: "$NPM_TOKEN"
}
~~~`,
	}

	projectFileParseErrorIssue = &Issue{
		id: ProjectFileParseErrorId,
		mdMsg: `
# Failed to parse npmpub.cue!

The project file contains CUE syntax errors or values the schema rejects.

## Common issues:
- Unknown field names (the schema is closed)
- ` + "`access`" + ` other than "public" or "restricted"
- Dependencies without a ` + "`version`" + `

## Things you can try:
- Check the field path reported above
- Run with verbose mode for the full error chain:
~~~
$ npmpub --verbose tasks
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the user configuration!

## Things you can try:
- Show where the configuration is read from:
~~~
$ npmpub config path
~~~
- Recreate a default configuration:
~~~
$ npmpub config init
~~~`,
	}

	manifestLoadFailedIssue = &Issue{
		id: ManifestLoadFailedId,
		mdMsg: `
# Failed to read the toolchain manifest!

The toolchain manifest lists compiled targets, their compile tasks and
their output files. It is written by the compiler build and may be TOML,
YAML or JSON.

## Things you can try:
- Run the compiler build so the manifest exists
- Check ` + "`toolchain_manifest`" + ` in npmpub.cue`,
	}

	npmNotFoundIssue = &Issue{
		id: NpmNotFoundId,
		mdMsg: `
# npm not found!

Packing and publishing shell out to the npm CLI.

## Things you can try:
- Install Node.js and make sure ` + "`npm`" + ` is on your PATH
- Point a publication at an existing installation with ` + "`node_js_dir`" + `
- Configure the command explicitly:
~~~cue
npm_command: "node /opt/npm/bin/npm-cli.js"
~~~`,
	}

	noValidPublicationsIssue = &Issue{
		id: NoValidPublicationsId,
		mdMsg: `
# No valid publications!

Every publication was skipped. A publication needs compiled output and a
module name; a registry needs a URL and an auth token.

## Things you can try:
- Look for "is invalid. Skipping..." warnings above
- List the tasks that were created:
~~~
$ npmpub tasks
~~~`,
	}

	packFailedIssue = &Issue{
		id: PackFailedId,
		mdMsg: `
# npm pack failed!

## Things you can try:
- Inspect the staged package directory listed above
- Check that package.json in the staged directory is valid`,
	}

	publishFailedIssue = &Issue{
		id: PublishFailedId,
		mdMsg: `
# npm publish failed!

The registry rejected the package or npm could not reach it.

## Common causes:
- The version is already published
- The auth token is expired or lacks publish rights
- The registry requires a one-time password

## Things you can try:
- Retry with a one-time password:
~~~
$ npmpub publish --otp 123456
~~~
- Try a dry run first:
~~~
$ npmpub publish --dry
~~~`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/commands/npm-publish"},
	}

	taskNotFoundIssue = &Issue{
		id: TaskNotFoundId,
		mdMsg: `
# Task not found!

## Things you can try:
- List the available tasks:
~~~
$ npmpub tasks
~~~
- Task names are derived from publication and registry names, for example
  ` + "`publishJsNpmPublicationToNpmjs`",
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Tasks depend on each other in a loop, so no execution order exists.

## Things you can try:
- Check the compile and resource task names in the toolchain manifest`,
	}

	releaseFailedIssue = &Issue{
		id: ReleaseFailedId,
		mdMsg: `
# GitLab release failed!

## Things you can try:
- Check ` + "`release.project_id`" + ` and ` + "`release.token`" + ` in npmpub.cue
- Make sure the tag does not already exist as a release
- Make sure CHANGELOG.md exists in the project directory`,
		extLinks: []HttpLink{"https://docs.gitlab.com/ee/api/releases/"},
	}

	invalidPublishingConfigIssue = &Issue{
		id: InvalidPublishingConfigId,
		mdMsg: `
# A publication or registry is misconfigured!

npm would refuse the value reported above, so nothing was run.

## Common issues:
- A version that is not semantic, such as ` + "`1.0-SNAPSHOT`" + ` or an empty version
- A registry URL without ` + "`https://`" + `
- ` + "`access`" + ` other than "public" or "restricted"`,
		extLinks: []HttpLink{"https://docs.npmjs.com/about-semantic-versioning"},
	}

	issues = map[Id]*Issue{
		projectFileNotFoundIssue.Id():     projectFileNotFoundIssue,
		projectFileParseErrorIssue.Id():   projectFileParseErrorIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		manifestLoadFailedIssue.Id():      manifestLoadFailedIssue,
		npmNotFoundIssue.Id():             npmNotFoundIssue,
		noValidPublicationsIssue.Id():     noValidPublicationsIssue,
		packFailedIssue.Id():              packFailedIssue,
		publishFailedIssue.Id():           publishFailedIssue,
		taskNotFoundIssue.Id():            taskNotFoundIssue,
		dependencyCycleIssue.Id():         dependencyCycleIssue,
		releaseFailedIssue.Id():           releaseFailedIssue,
		invalidPublishingConfigIssue.Id(): invalidPublishingConfigIssue,
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	catalog := maps.Clone(issues)
	values := make([]*Issue, 0, len(catalog))
	for _, i := range catalog {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id - b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
