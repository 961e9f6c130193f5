package match

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SPSAPlaceholder is the token in the assembled argument list that gets
// replaced with per-side tuning options before the process is launched.
const SPSAPlaceholder = "_spsa_"

// Batch describes one match-runner invocation. Args turns it into the
// cutechess-cli argument list.
type Batch struct {
	GamesToPlay int
	Concurrency int

	SiteURL string
	Event   string
	Seed    uint64
	PGNOut  string // empty disables pgn output

	// OpeningArgs is the file-based opening selection (-openings ...);
	// BookOptions is the per-engine alternative (book=/bookdepth=). At most
	// one of the two is set.
	OpeningArgs []string
	BookOptions []string

	NewName     string
	NewCmd      string
	NewOptions  []string
	BaseName    string
	BaseCmd     string
	BaseOptions []string

	TC         string
	TimeMargin bool // extra grace time when nodestime is in play
	Threads    int  // 0 means an engine option already sets it
}

// Args assembles the full argument list, with one SPSAPlaceholder after
// each engine's options.
func (b *Batch) Args() []string {
	args := []string{
		"-repeat",
		"-rounds", strconv.Itoa(b.GamesToPlay / 2),
		"-games", "2",
		"-tournament", "gauntlet",
	}
	if b.PGNOut != "" {
		args = append(args, "-pgnout", b.PGNOut)
	}
	args = append(args,
		"-site", b.SiteURL,
		"-event", b.Event,
		"-srand", strconv.FormatUint(b.Seed, 10),
		"-resign", "movecount=3", "score=400",
		"-draw", "movenumber=34", "movecount=8", "score=20",
		"-concurrency", strconv.Itoa(b.Concurrency),
	)
	args = append(args, b.OpeningArgs...)

	args = append(args, "-engine", "name="+b.NewName, "cmd="+b.NewCmd)
	args = append(args, b.NewOptions...)
	args = append(args, SPSAPlaceholder)
	args = append(args, "-engine", "name="+b.BaseName, "cmd="+b.BaseCmd)
	args = append(args, b.BaseOptions...)
	args = append(args, SPSAPlaceholder)

	args = append(args, "-each", "proto=uci", "tc="+b.TC)
	if b.TimeMargin {
		args = append(args, "timemargin=10000")
	}
	if b.Threads > 0 {
		args = append(args, fmt.Sprintf("option.Threads=%d", b.Threads))
	}
	args = append(args, b.BookOptions...)
	return args
}

// InjectSPSA replaces the two placeholder tokens with the given option
// tokens: the first placeholder belongs to the new/white side, the second to
// the base/black side. Passing nil slices just removes the placeholders.
func InjectSPSA(args, white, black []string) []string {
	args = replacePlaceholder(args, white)
	return replacePlaceholder(args, black)
}

func replacePlaceholder(args, options []string) []string {
	idx := slices.Index(args, SPSAPlaceholder)
	if idx < 0 {
		return args
	}
	out := make([]string, 0, len(args)-1+len(options))
	out = append(out, args[:idx]...)
	out = append(out, options...)
	out = append(out, args[idx+1:]...)
	return out
}

// ParseEngineOptions converts a run's option string, e.g.
// "Hash=128 Min Split Depth=5", into cutechess option tokens
// ("option.Hash=128", "option.Min Split Depth=5"). Option names may contain
// spaces; values are single words.
func ParseEngineOptions(s string) []string {
	chunks := strings.Split(s, "=")
	if len(chunks) < 2 {
		return nil
	}
	var options []string
	name := chunks[0]
	for _, chunk := range chunks[1:] {
		words := strings.Fields(chunk)
		if len(words) == 0 {
			continue
		}
		options = append(options, fmt.Sprintf("option.%s=%s", strings.TrimSpace(name), words[0]))
		name = strings.Join(words[1:], " ")
	}
	return options
}
