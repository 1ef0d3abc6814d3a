package tui

import (
	"slices"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
)

// Command is a parsed ":" command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string without the leading ':'.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// commandAliases maps short forms to command names.
var commandAliases = map[string]string{
	"q":    "quit",
	"p":    "postings",
	"s":    "sightings",
	"h":    "help",
	"me":   "profile",
	"r":    "refresh",
	"st":   "status",
	"o":    "open",
	"prov": "province",
}

func canonical(name string) string {
	if full, ok := commandAliases[name]; ok {
		return full
	}
	return name
}

var commandNames = []string{"postings", "sightings", "profile", "open ", "status ", "province ", "refresh", "logout", "help", "quit"}

// commandCompletions lists what the command prompt suggests, arguments included.
func commandCompletions() []string {
	out := slices.Clone(commandNames)
	for _, s := range lifecycle.All {
		out = append(out, "status "+string(s))
	}
	for _, p := range model.Provinces {
		out = append(out, "province "+p)
	}
	return out
}
