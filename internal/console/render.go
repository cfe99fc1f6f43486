// Package console renders list-form state as terminal tables and drives a controller from an
// interactive shell.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"hrconsole/internal/listform"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

// EmptyMessage is printed instead of a table when a list has no rows.
const EmptyMessage = "no records found"

// ColumnLabel returns the header for a list column. Denormalized reference names take the
// label of the reference field.
func ColumnLabel(s *schema.Schema, key string) string {
	if f, ok := s.Field(key); ok && f.Label != "" {
		return f.Label
	}
	if s.Reference != nil && key == strings.TrimSuffix(s.Reference.Field, "_id")+"_name" {
		if f, ok := s.Field(s.Reference.Field); ok {
			return f.Label
		}
	}
	return key
}

// Cell formats one record value for display.
func Cell(s *schema.Schema, rec hrsdk.Record, key string) string {
	v := rec.String(key)
	if f, ok := s.Field(key); ok && f.Kind == schema.KindDate {
		v, _, _ = strings.Cut(v, "T")
	}
	return v
}

// RenderList writes items as a table with an ID column followed by the schema's columns.
func RenderList(w io.Writer, s *schema.Schema, items []hrsdk.Record) {
	if len(items) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	header := table.Row{"ID"}
	for _, col := range s.Columns {
		header = append(header, ColumnLabel(s, col))
	}
	tw.AppendHeader(header)
	for _, rec := range items {
		row := table.Row{rec.String("id")}
		for _, col := range s.Columns {
			row = append(row, Cell(s, rec, col))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

// RenderDraft writes the form: one row per field with its current value. Enum fields list
// their options; the reference field shows the label of the selected option.
func RenderDraft(w io.Writer, s *schema.Schema, st listform.State) {
	title := "New " + s.Name
	if st.Mode == listform.Editing {
		title = fmt.Sprintf("Editing %s %d", s.Name, st.EditingID)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Field", "Key", "Value", "Choices"})
	for _, f := range s.Fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		value := st.Draft[f.Key]
		choices := ""
		switch f.Kind {
		case schema.KindEnum:
			choices = strings.Join(f.Options, " | ")
		case schema.KindReference:
			if opt, ok := findOption(st.Options, value); ok {
				value = opt.Label
			}
			choices = fmt.Sprintf("%d option(s)", len(st.Options))
		}
		tw.AppendRow(table.Row{label, f.Key, value, choices})
	}
	tw.Render()
}

// RenderOptions lists the reference field choices.
func RenderOptions(w io.Writer, opts []listform.ReferenceOption) {
	if len(opts) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Value", "Label"})
	for _, o := range opts {
		tw.AppendRow(table.Row{o.Value, o.Label})
	}
	tw.Render()
}

// RenderState writes the error banner, the search term and the list.
func RenderState(w io.Writer, s *schema.Schema, st listform.State) {
	if st.LastError != nil {
		fmt.Fprintf(w, "error: %s\n", st.LastError.Message)
	}
	if st.SearchTerm != "" {
		fmt.Fprintf(w, "search: %q\n", st.SearchTerm)
	}
	RenderList(w, s, st.Items)
}

// RenderEvents writes audit events, newest first.
func RenderEvents(w io.Writer, events []hrsdk.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Time", "Type", "Resource", "Entity"})
	for _, e := range events {
		tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.Resource, e.EntityID})
	}
	tw.Render()
}

// RenderSchema describes every field of s.
func RenderSchema(w io.Writer, s *schema.Schema) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s (/api/%s)", s.Name, s.Resource))
	tw.AppendHeader(table.Row{"Key", "Label", "Kind", "Required", "Default", "Options"})
	for _, f := range s.Fields {
		def := f.Default
		if f.DefaultFunc != nil {
			def = "today"
		}
		opts := strings.Join(f.Options, " | ")
		if f.Kind == schema.KindReference && s.Reference != nil {
			opts = s.Reference.Resource
		}
		tw.AppendRow(table.Row{f.Key, f.Label, string(f.Kind), f.Required, def, opts})
	}
	tw.Render()
}

func findOption(opts []listform.ReferenceOption, value string) (listform.ReferenceOption, bool) {
	for _, o := range opts {
		if o.Value == value {
			return o, true
		}
	}
	return listform.ReferenceOption{}, false
}
