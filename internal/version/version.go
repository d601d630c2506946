package version

import (
	"fmt"
	"log"
	"strings"

	"github.com/thushan/lmsgate/theme"
)

var (
	Name        = "lmsgate"
	Authors     = "Thushan Fernando"
	Description = "Management gateway for LM Studio"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
)

const (
	GithubHomeText  = "github.com/thushan/lmsgate"
	GithubHomeUri   = "https://github.com/thushan/lmsgate"
	GithubLatestUri = "https://github.com/thushan/lmsgate/releases/latest"
)

// Info is the payload served on the version endpoint
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	User        string `json:"user"`
}

func Current() Info {
	return Info{
		Name:        Name,
		Version:     Version,
		Description: Description,
		Commit:      Commit,
		Date:        Date,
		User:        User,
	}
}

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder

	b.WriteString(theme.ColourBanner(`
╔──────────────────────────────────────────────╗
│  _                             _             │
│ | |_ __ ___  ___  __ _  __ _ | |_ ___        │
│ | | '_ ' _ \/ __|/ _' |/ _' || __/ _ \       │
│ | | | | | | \__ \ (_| | (_| || ||  __/       │
│ |_|_| |_| |_|___/\__, |\__,_| \__\___|       │
│                  |___/                       │` + "\n"))

	b.WriteString(theme.ColourBanner("│ "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString(" ")
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString(theme.ColourBanner(fmt.Sprintf("%*s│\n", max(1, 45-len(GithubHomeText)-len(Version)-1), "")))
	b.WriteString(theme.ColourBanner("╚──────────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
	}

	vlog.Println(b.String())
}
