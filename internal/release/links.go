// SPDX-License-Identifier: MPL-2.0

package release

import (
	"fmt"
	"os"
	"strings"

	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// PackageLinks returns one package link per publication. Links point to
// base/<package> when base is set and to the publication's registry
// otherwise.
func PackageLinks(pubs []*npmpublish.ResolvedPublication, base string) []Link {
	links := make([]Link, 0, len(pubs))
	for _, pub := range pubs {
		root := base
		if root == "" {
			root = pub.Registry
		}
		links = append(links, Link{
			Name:     pub.PackageName,
			URL:      strings.TrimRight(root, "/") + "/" + pub.PackageName,
			LinkType: LinkTypePackage,
		})
	}
	return links
}

// ReadChangelog returns the changelog text at path.
func ReadChangelog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read changelog: %w", err)
	}
	return string(data), nil
}
