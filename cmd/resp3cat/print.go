package main

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/nussjustin/resp3/v2"
)

// printValue writes v in a human readable form, one line per scalar.
func printValue(w io.Writer, v any) error {
	var sb strings.Builder
	formatValue(&sb, v, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatValue(sb *strings.Builder, v any, indent string) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("(nil)\n")
	case string:
		sb.WriteString(strconv.Quote(v))
		sb.WriteByte('\n')
	case int64:
		fmt.Fprintf(sb, "(integer) %d\n", v)
	case float64:
		fmt.Fprintf(sb, "(double) %s\n", strconv.FormatFloat(v, 'g', -1, 64))
	case *big.Int:
		fmt.Fprintf(sb, "(big number) %s\n", v)
	case bool:
		fmt.Fprintf(sb, "(%t)\n", v)
	case resp3.SimpleError:
		fmt.Fprintf(sb, "(error) %s\n", v.Error())
	case resp3.BulkError:
		fmt.Fprintf(sb, "(error) %s\n", strconv.Quote(v.Error()))
	case resp3.VerbatimString:
		fmt.Fprintf(sb, "(%s) %s\n", v.Encoding, strconv.Quote(v.Data))
	case []any:
		formatList(sb, "array", v, indent)
	case resp3.Push:
		sb.WriteString("(push) ")
		formatList(sb, "push", v, indent)
	case resp3.Set:
		sb.WriteString("(set) ")
		formatList(sb, "set", v, indent)
	case *resp3.Map:
		formatMap(sb, v, indent)
	default:
		fmt.Fprintf(sb, "%v\n", v)
	}
}

func formatList(sb *strings.Builder, name string, elems []any, indent string) {
	if len(elems) == 0 {
		fmt.Fprintf(sb, "(empty %s)\n", name)
		return
	}
	width := len(strconv.Itoa(len(elems)))
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(indent)
		}
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		sb.WriteString(prefix)
		formatValue(sb, e, indent+strings.Repeat(" ", len(prefix)))
	}
}

func formatMap(sb *strings.Builder, m *resp3.Map, indent string) {
	if m.Len() == 0 {
		sb.WriteString("(empty map)\n")
		return
	}
	width := len(strconv.Itoa(m.Len()))
	for i, e := range m.Entries() {
		if i > 0 {
			sb.WriteString(indent)
		}
		prefix := fmt.Sprintf("%*d# ", width, i+1)
		sb.WriteString(prefix)

		var key strings.Builder
		formatValue(&key, e.Key, indent+strings.Repeat(" ", len(prefix)))
		sb.WriteString(strings.TrimSuffix(key.String(), "\n"))
		sb.WriteString(" => ")
		formatValue(sb, e.Value, indent+strings.Repeat(" ", len(prefix)+4))
	}
}
