package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/spotify_remote/internal/core"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// HumanPrinter prints human-readable output to Out, stdout when unset.
type HumanPrinter struct {
	Out io.Writer
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	w := writer(p.Out)
	switch data := v.(type) {
	case core.NodesResult:
		return printNodes(w, data)
	case core.StatusResult:
		return printStatus(w, data)
	case core.AckResult:
		_, err := fmt.Fprintf(w, "%s ok\n", data.Command)
		return err
	case core.PlayerStateResult:
		return printPlayerState(w, data.State)
	case core.ItemsResult:
		return printItems(w, data.Items)
	case sr.Event:
		return printEvent(w, data)
	case core.RawResult:
		return printRaw(w, data)
	default:
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func printNodes(w io.Writer, result core.NodesResult) error {
	data := pterm.TableData{{"NAME", "KIND", "CONNECTED", "NODE_ID"}}
	for _, node := range result.Nodes {
		connected := ""
		if value, ok := node.Caps["connected"].(bool); ok {
			connected = yesNo(value)
		}
		data = append(data, []string{node.Name, node.Kind, connected, node.NodeID})
	}
	return renderTable(w, data)
}

func printStatus(w io.Writer, result core.StatusResult) error {
	state := pterm.Red("disconnected")
	if result.Connected {
		state = pterm.Green("connected")
	}
	if _, err := fmt.Fprintf(w, "%s  [%s]  %s\n", result.Bridge.Name, state, result.Bridge.NodeID); err != nil {
		return err
	}
	if result.Session == nil {
		_, err := fmt.Fprintln(w, "session: none")
		return err
	}
	expiry, _ := result.Session["expirationDate"].(string)
	if expiry == "" {
		expiry = "unknown"
	}
	expired, _ := result.Session["expired"].(bool)
	_, err := fmt.Fprintf(w, "session: expires %s, expired %s\n", expiry, yesNo(expired))
	return err
}

func printPlayerState(w io.Writer, state map[string]any) error {
	if state == nil {
		_, err := fmt.Fprintln(w, "(no state)")
		return err
	}
	status := "playing"
	if paused, _ := state["isPaused"].(bool); paused {
		status = "paused"
	}
	line := fmt.Sprintf("[%s]", status)
	if track, ok := state["track"].(map[string]any); ok {
		line = fmt.Sprintf("%s  %s", line, formatTrack(track))
		position, _ := state["playbackPosition"].(float64)
		duration, _ := track["duration"].(float64)
		line = fmt.Sprintf("%s  %s", line, formatPosition(int64(position), int64(duration)))
	}
	if options, ok := state["playbackOptions"].(map[string]any); ok {
		shuffle, _ := options["isShuffling"].(bool)
		repeat, _ := options["repeatMode"].(float64)
		line = fmt.Sprintf("%s  shuffle %s  repeat %s", line, yesNo(shuffle), repeatName(int(repeat)))
	}
	_, err := fmt.Fprintln(w, strings.TrimSpace(line))
	return err
}

func printItems(w io.Writer, items []map[string]any) error {
	data := pterm.TableData{{"TITLE", "SUBTITLE", "PLAYABLE", "CHILDREN", "URI"}}
	for _, item := range items {
		title, _ := item["title"].(string)
		subtitle, _ := item["subtitle"].(string)
		uri, _ := item["uri"].(string)
		playable, _ := item["playable"].(bool)
		children, _ := item["container"].(bool)
		data = append(data, []string{title, subtitle, yesNo(playable), yesNo(children), uri})
	}
	return renderTable(w, data)
}

func printEvent(w io.Writer, evt sr.Event) error {
	ts := time.Unix(evt.TS, 0).Format(time.Kitchen)
	if len(evt.Body) == 0 {
		_, err := fmt.Fprintf(w, "%s  %s\n", ts, evt.Type)
		return err
	}
	if evt.Type == sr.EventPlayerStateChanged {
		var state map[string]any
		if err := json.Unmarshal(evt.Body, &state); err == nil {
			if _, err := fmt.Fprintf(w, "%s  %s  ", ts, evt.Type); err != nil {
				return err
			}
			return printPlayerState(w, state)
		}
	}
	_, err := fmt.Fprintf(w, "%s  %s  %s\n", ts, evt.Type, string(evt.Body))
	return err
}

func printRaw(w io.Writer, result core.RawResult) error {
	raw, err := rawBytes(result.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func renderTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func rawBytes(data any) ([]byte, error) {
	switch val := data.(type) {
	case json.RawMessage:
		return val, nil
	case []byte:
		return val, nil
	default:
		out, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func formatTrack(track map[string]any) string {
	name, _ := track["name"].(string)
	artist := ""
	if a, ok := track["artist"].(map[string]any); ok {
		artist, _ = a["name"].(string)
	}
	if name != "" && artist != "" {
		return fmt.Sprintf("%s - %s", artist, name)
	}
	if name != "" {
		return name
	}
	uri, _ := track["uri"].(string)
	return uri
}

func formatPosition(pos, dur int64) string {
	if pos == 0 && dur == 0 {
		return ""
	}
	if dur > 0 {
		return fmt.Sprintf("%s / %s (%d%%)", formatMS(pos), formatMS(dur), (pos*100)/dur)
	}
	return fmt.Sprintf("%s / %s", formatMS(pos), formatMS(dur))
}

func formatMS(ms int64) string {
	if ms <= 0 {
		return "0:00"
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func repeatName(mode int) string {
	switch mode {
	case 1:
		return "track"
	case 2:
		return "context"
	default:
		return "off"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
