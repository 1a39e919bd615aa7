package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/recordkit/schema"
)

var (
	flagJSON   bool
	flagLayout string
)

var layoutCmd = &cobra.Command{
	Use:   "layout FILE...",
	Short: "Print the frozen layout of every contract in the files",
	Args:  args(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, paths []string) error {
		strategy, err := schema.ParseLayoutStrategy(flagLayout)
		if err != nil {
			return err
		}
		reg, closer, err := openRegistry(cmd.Context(), cfg, strategy, paths...)
		if err != nil {
			return err
		}
		defer closer()
		return writeLayout(cmd.OutOrStdout(), reg.Schemas(), flagJSON)
	},
}

func init() {
	layoutCmd.Flags().BoolVar(&flagJSON, "json", false, "output as JSON")
	layoutCmd.Flags().StringVar(&flagLayout, "layout", "declaration", "field packing: declaration or size")
}

type layoutJSON struct {
	Name   string      `json:"name"`
	Layout string      `json:"layout"`
	Fields []fieldJSON `json:"fields"`
	ID     uint32      `json:"id"`
	Size   uint64      `json:"size"`
}

type fieldJSON struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset uint64 `json:"offset"`
	Width  uint64 `json:"width"`
	Count  int    `json:"count"`
}

func describeLayout(s *schema.Schema) layoutJSON {
	out := layoutJSON{
		Name:   s.Name(),
		Layout: s.Strategy().String(),
		ID:     s.ID(),
		Size:   s.Size(),
		Fields: make([]fieldJSON, 0, len(s.Fields())),
	}
	for _, f := range s.Fields() {
		out.Fields = append(out.Fields, fieldJSON{
			Name:   f.Name,
			Type:   f.Type().String(),
			Offset: f.Offset,
			Width:  f.ElementWidth,
			Count:  f.ElementCount,
		})
	}
	return out
}

var schemaTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

func writeLayout(w io.Writer, schemas []*schema.Schema, asJSON bool) error {
	if asJSON {
		out := make([]layoutJSON, len(schemas))
		for i, s := range schemas {
			out[i] = describeLayout(s)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal layout: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, s := range schemas {
		l := describeLayout(s)
		title := fmt.Sprintf("%s  id %d, %d bytes, %s order", l.Name, l.ID, l.Size, l.Layout)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("OFFSET", "WIDTH", "COUNT", "TYPE", "FIELD")
		for _, f := range l.Fields {
			t.Row(
				strconv.FormatUint(f.Offset, 10),
				strconv.FormatUint(f.Width, 10),
				strconv.Itoa(f.Count),
				f.Type,
				f.Name,
			)
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", schemaTitleStyle.Render(title), t.String()); err != nil {
			return err
		}
	}
	return nil
}
