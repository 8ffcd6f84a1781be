package repo

import (
	"fmt"
	"strconv"
	"strings"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/domain/sgf"
	"baduk_arena/internal/statuses"
)

// ExportSGF renders an archived session as an SGF document. Physics
// minigames have no board record, so they archive with an empty string.
func ExportSGF(snap game.Snapshot) string {
	if snap.Mode == game.ModeAlkkagi || snap.Mode == game.ModeCurling {
		return ""
	}
	doc := sgf.SGF{
		Root: &sgf.GameTree{
			Nodes: []sgf.Node{
				{
					Properties: map[string][]string{
						"FF": {"4"},
						"GM": {"1"},
						"SZ": {strconv.Itoa(snap.Settings.BoardSize)},
						"PB": {snap.PlayerBlack},
						"PW": {snap.PlayerWhite},
						"DT": {snap.CreatedAt.Format("2006-01-02")},
						"RE": {sgfResult(snap)},
						"KM": {strconv.FormatFloat(snap.Settings.Komi, 'f', 1, 64)},
						"RU": {"Chinese"},
						"C":  {string(snap.Mode)},
					},
				},
			},
		},
	}
	appendHistory(doc.Root, snap.History)
	return SerializeSGF(&doc)
}

func appendHistory(tree *sgf.GameTree, history []game.MoveRecord) {
	for _, rec := range history {
		var coord string
		switch rec.Type {
		case string(game.ActionPlace):
			coord = sgfCoord(rec.X, rec.Y)
		case string(game.ActionPass):
			coord = ""
		default:
			// bids, missiles, thief steps and other variant actions have
			// no SGF vocabulary
			continue
		}
		key := "B"
		if rec.Color == "white" {
			key = "W"
		}
		tree.Nodes = append(tree.Nodes, sgf.Node{
			Properties: map[string][]string{key: {coord}},
		})
	}
}

func sgfCoord(x, y int) string {
	return string([]byte{byte('a' + x), byte('a' + y)})
}

func sgfResult(snap game.Snapshot) string {
	if snap.Winner == "" {
		return "?"
	}
	side := "B"
	if snap.Winner == "white" {
		side = "W"
	}
	switch snap.WinReason {
	case statuses.WinReasonResign:
		return side + "+R"
	case statuses.WinReasonTimeout:
		return side + "+T"
	case statuses.WinReasonFoulLimit, statuses.WinReasonAbandoned:
		return side + "+F"
	default:
		return side + "+"
	}
}

// SerializeSGF flattens an SGF tree into its text form.
func SerializeSGF(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		// fixed property order for the root node, then anything else
		orderedKeys := []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "C", "B", "W"}
		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}

		for key, values := range node.Properties {
			if !used[key] {
				for _, v := range values {
					builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
				}
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}
