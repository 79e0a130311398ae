package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// renderAppHeader renders the title line with the storage root and the
// number of packages found.
func renderAppHeader(root string, packages int, live bool) string {
	appName := titleStyle.Render("VAULT")
	stats := mutedTextStyle.Render(fmt.Sprintf("  %s packages  •  %s", humanize.Comma(int64(packages)), root))

	header := " " + appName + stats
	if live {
		header += successTextStyle.Render("  ● LIVE")
	}
	return header
}
