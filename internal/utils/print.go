package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iancoleman/orderedmap"
	"github.com/jedib0t/go-pretty/v6/table"
)

/**
 * Convert a struct to an ordered map keyed by its json tags
 * @param {interface{}} v - Struct value
 * @returns {*orderedmap.OrderedMap} Map keeping field declaration order
 */
func StructToOrderedMap(v interface{}) (*orderedmap.OrderedMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := orderedmap.New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PrintFormat 以表格形式打印记录列表，列顺序取第一条记录的键顺序
func PrintFormat(dataList []*orderedmap.OrderedMap) {
	FprintFormat(os.Stdout, dataList)
}

func FprintFormat(w io.Writer, dataList []*orderedmap.OrderedMap) {
	if len(dataList) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	keys := dataList[0].Keys()
	header := table.Row{}
	for _, k := range keys {
		header = append(header, k)
	}
	t.AppendHeader(header)

	for _, rec := range dataList {
		row := table.Row{}
		for _, k := range keys {
			v, _ := rec.Get(k)
			row = append(row, formatCell(v))
		}
		t.AppendRow(row)
	}
	t.Render()
}

// PrintKeyValues 打印两列 (名称/值) 表格
func PrintKeyValues(w io.Writer, rec *orderedmap.OrderedMap) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAME", "VALUE"})
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		t.AppendRow(table.Row{k, formatCell(v)})
	}
	t.Render()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		// json 数字统一解成 float64
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case string:
		return x
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
